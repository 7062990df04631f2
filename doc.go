// Package quizClient provides the client-side session manager for the QuizHacker quiz
// platform: credential lifecycle, the verification flow, avatar synchronisation, and the
// shared policy for interpreting API responses.
//
// A host application builds exactly one [Manager] at startup through [Builder.Build],
// calls [Manager.LoadSession], and hands the Manager to every screen or command
// ([WithManager], [ManagerFromContext]). Manager methods are safe to call from multiple
// goroutines.
//
// # State
//
// The connection state is an explicit union, read with [Manager.State]:
//
//	Anonymous | Pending{Verification} | Authenticated{Session, Avatar}
//
// with Avatar one of [NoAvatar], [AvatarFetching], [AvatarReady]. Invalid combinations
// (logged in and awaiting verification, an avatar without a session) cannot be expressed.
//
// # Architecture boundaries
//
// Persistence lives in the session sub-package, token inspection in jwt, the
// authenticated http.RoundTripper in middleware, and typed endpoint calls in api. This
// package holds in-memory state and response policy only.
//
// # What this package must NOT do
//
//   - Render UI or decide navigation. User-visible prompts are handed to a [Prompter].
//   - Retry failed calls on its own.
//   - Import api or middleware (no import cycles).
package quizClient
