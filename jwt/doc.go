// Package jwt inspects the bearer credential the backend hands out at login.
//
// The client treats the credential as opaque for authentication purposes; the [Inspector]
// only reads its claims (expiry, subject, role) so the session layer can drop tokens that
// are already expired and callers can display them. When a verification key is configured
// the signature is checked as well.
package jwt
