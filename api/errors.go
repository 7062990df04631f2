package api

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects the username or
	// password.
	ErrInvalidCredentials = errors.New("incorrect credentials")
	// ErrEmailInUse is returned by Signup when the email is already registered.
	ErrEmailInUse = errors.New("email is already in use")
	// ErrUsernameInUse is returned by Signup when the username is taken.
	ErrUsernameInUse = errors.New("username is already in use")
	// ErrNoPendingVerification is returned by Verify when no login or signup is waiting
	// for a code.
	ErrNoPendingVerification = errors.New("no pending verification")
	// ErrVerificationTarget is returned when the pending user does not exist or is
	// already verified.
	ErrVerificationTarget = errors.New("wrong user id or the user is already verified")
	// ErrVerificationCode is returned when the verification code is wrong.
	ErrVerificationCode = errors.New("verification code is incorrect")
	// ErrEmptyResponse is returned when an authenticated read yields no data. The user has
	// been asked to log in again.
	ErrEmptyResponse = errors.New("empty response")
	// ErrMissingHeader is returned when a success response lacks a header the call needs.
	ErrMissingHeader = errors.New("missing response header")
	// ErrInvalidArgument is returned before any request is sent.
	ErrInvalidArgument = errors.New("invalid argument")
)
