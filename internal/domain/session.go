package domain

import "time"

// SessionState is the lifecycle of the automation client's session.
type SessionState string

const (
	SessionUninitialized SessionState = "uninitialized"
	SessionPairing       SessionState = "pairing"
	SessionConnected     SessionState = "connected"
	SessionDisconnected  SessionState = "disconnected"
)

// SessionSnapshot is a point-in-time view of the session. QR holds the
// current pairing code as a PNG data URL and is only set while pairing.
type SessionSnapshot struct {
	State SessionState
	QR    string
	Since time.Time
}
