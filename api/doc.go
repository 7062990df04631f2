// Package api is a typed client for the QuizHacker backend.
//
// Authenticated calls are sent through [middleware.Transport], so a rejected credential
// ends the session held by the [quizClient.Manager] before the call returns. Unauthenticated
// calls (login, signup, verification and the public listings) never touch the session
// except through the explicit transitions they trigger.
//
//	m, _ := quizClient.New().WithSQLite("session.db").Build()
//	_ = m.LoadSession(ctx)
//	client, _ := api.NewClient(m)
//	outcome, err := client.Login(ctx, "alice", "secret")
package api
