package session

// Persisted key names. They match the layout written by earlier releases of the mobile
// client, so they must not change.
const (
	KeyToken     = "jwt"
	KeyUserID    = "id"
	KeyRole      = "role"
	KeyPendingID = "unverifiedId"
)

// AuthKeys are the keys that together make up a persisted [Session].
var AuthKeys = []string{KeyToken, KeyUserID, KeyRole}

// AllKeys lists every key the session layer owns.
var AllKeys = []string{KeyToken, KeyUserID, KeyRole, KeyPendingID}

// Session is the authenticated identity of the current device user.
type Session struct {
	Token  string
	UserID string
	Role   string
}

// Complete reports whether every field is populated. An incomplete Session is never
// exposed as logged in.
func (s Session) Complete() bool {
	return s.Token != "" && s.UserID != "" && s.Role != ""
}

// PendingVerification marks a login or registration waiting for an out-of-band code.
type PendingVerification struct {
	PendingID string
}

// Record is one read of the persisted keys.
type Record struct {
	Token     string
	UserID    string
	Role      string
	PendingID string
}

// Session returns the persisted session and whether it is complete.
func (r Record) Session() (Session, bool) {
	s := Session{Token: r.Token, UserID: r.UserID, Role: r.Role}
	if !s.Complete() {
		return Session{}, false
	}
	return s, true
}

// Pending returns the persisted pending verification, if any.
func (r Record) Pending() (PendingVerification, bool) {
	if r.PendingID == "" {
		return PendingVerification{}, false
	}
	return PendingVerification{PendingID: r.PendingID}, true
}
