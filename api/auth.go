package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	quizClient "github.com/MrEthical07/quizClient"
)

func success(resp *http.Response) bool {
	return quizClient.ClassifyStatus(resp.StatusCode) == quizClient.ResponseOK
}

// Login exchanges credentials for a session.
//
// A response carrying an Authorization header establishes the session from the
// Authorization, Host and Allow headers. A 202 without a credential means the account
// still needs verification: the id from the Host header is stored as the pending
// verification and Verify must be called with the emailed code.
func (c *Client) Login(ctx context.Context, username, password string) (LoginOutcome, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return 0, fmt.Errorf("%w: username and password are required", ErrInvalidArgument)
	}

	resp, err := c.do(ctx, http.MethodPost, false, Credentials{Username: username, Password: password}, "login")
	if err != nil {
		return 0, err
	}
	defer drainClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return 0, ErrInvalidCredentials
	case !success(resp):
		return 0, c.checkStatus(resp, false)
	}

	if token := resp.Header.Get(headerAuthorization); token != "" {
		userID := resp.Header.Get(headerHost)
		if err := c.manager.EstablishSession(ctx, token, userID, resp.Header.Get(headerAllow)); err != nil {
			return 0, err
		}
		c.logger.InfoContext(ctx, "logged in", "user_id", userID)
		return LoginAuthenticated, nil
	}

	if resp.StatusCode == http.StatusAccepted {
		if err := c.beginVerification(ctx, resp); err != nil {
			return 0, err
		}
		return LoginVerificationRequired, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrMissingHeader, headerAuthorization)
}

// Signup registers a new account. A 200 means a verification code was emailed and the
// pending id has been stored; any other success means the user can log in right away.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (SignupOutcome, error) {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return 0, fmt.Errorf("%w: username, email and password are required", ErrInvalidArgument)
	}

	resp, err := c.do(ctx, http.MethodPost, false, req, "signup")
	if err != nil {
		return 0, err
	}
	defer drainClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotAcceptable:
		return 0, ErrEmailInUse
	case resp.StatusCode == http.StatusConflict:
		return 0, ErrUsernameInUse
	case !success(resp):
		return 0, c.checkStatus(resp, false)
	case resp.StatusCode == http.StatusOK:
		if err := c.beginVerification(ctx, resp); err != nil {
			return 0, err
		}
		return SignupVerificationRequired, nil
	default:
		return SignupRegistered, nil
	}
}

func (c *Client) beginVerification(ctx context.Context, resp *http.Response) error {
	pendingID := resp.Header.Get(headerHost)
	if pendingID == "" {
		return fmt.Errorf("%w: %s", ErrMissingHeader, headerHost)
	}
	if err := c.manager.BeginVerification(ctx, pendingID); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "verification code sent", "pending_id", pendingID)
	return nil
}

// Verify submits the emailed code for the pending login or signup. On success the pending
// verification is cleared and the user can log in.
func (c *Client) Verify(ctx context.Context, code string) error {
	pending, ok := c.manager.PendingVerification()
	if !ok {
		return ErrNoPendingVerification
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: verification code is required", ErrInvalidArgument)
	}

	resp, err := c.do(ctx, http.MethodPut, false, rawBody(code), "verify", pending.PendingID)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return ErrVerificationTarget
	case resp.StatusCode == http.StatusConflict:
		return ErrVerificationCode
	case !success(resp):
		return c.checkStatus(resp, false)
	}
	return c.manager.CompleteVerification(ctx)
}

// Logout ends the local session. The backend keeps no server-side session state.
func (c *Client) Logout(ctx context.Context) error {
	return c.manager.EndSession(ctx)
}
