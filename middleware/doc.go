// Package middleware adapts the quizClient session policy to net/http on the client side.
//
// # Transport
//
//   - [Transport] is an http.RoundTripper. Requests whose context was marked with
//     [WithAuth] get the current credential in the Authorization header and their response
//     passed to Manager.HandleResponse, so a rejected credential ends the session no matter
//     which caller issued the request.
//   - Unmarked requests (login, signup, public reads) only get a request id and a log line.
//
// # What this package must NOT do
//
//   - Read or write persisted session keys (the Manager owns them).
//   - Consume or close response bodies.
//   - Retry requests.
package middleware
