package quizClient

import (
	"github.com/MrEthical07/quizClient/session"
	"github.com/google/uuid"
)

// State is the connection state of the current device user. It is exactly one of
// [Anonymous], [Pending] or [Authenticated].
type State interface {
	isState()
	String() string
}

// Anonymous means no session and no pending verification.
type Anonymous struct{}

// Pending means a login or registration is waiting for a verification code.
type Pending struct {
	Verification session.PendingVerification
}

// Authenticated carries the current session and its avatar sub-state.
type Authenticated struct {
	Session session.Session
	Avatar  AvatarState
}

func (Anonymous) isState()     {}
func (Pending) isState()       {}
func (Authenticated) isState() {}

func (Anonymous) String() string     { return "anonymous" }
func (Pending) String() string       { return "pending_verification" }
func (Authenticated) String() string { return "authenticated" }

// AvatarState is exactly one of [NoAvatar], [AvatarFetching] or [AvatarReady].
type AvatarState interface {
	isAvatarState()
	String() string
}

// NoAvatar means there is no avatar to show.
type NoAvatar struct{}

// AvatarFetching means a fetch task for Generation is in flight.
type AvatarFetching struct {
	Generation uuid.UUID
}

// AvatarReady holds the fetched avatar location.
type AvatarReady struct {
	URL string
}

func (NoAvatar) isAvatarState()       {}
func (AvatarFetching) isAvatarState() {}
func (AvatarReady) isAvatarState()    {}

func (NoAvatar) String() string       { return "no_avatar" }
func (AvatarFetching) String() string { return "fetching" }
func (AvatarReady) String() string    { return "ready" }

func sameIdentity(a, b session.Session) bool {
	return a.Token == b.Token && a.UserID == b.UserID && a.Role == b.Role
}
