// Package queue defines message payloads exchanged over the message broker.
package queue

// PasswordResetEvent is published when a privileged user resets another
// account's password.  Resets replace the target's credential outright,
// so they are the one auth operation that leaves an audit trail.  The
// event never carries the OTP itself, only who did what to whom.
type PasswordResetEvent struct {
	ActorID        string `json:"actor_id"`
	ActorUsername  string `json:"actor_username"`
	TargetID       string `json:"target_id"`
	TargetUsername string `json:"target_username"`
	ResetAt        string `json:"reset_at"`
}
