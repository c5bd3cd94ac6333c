package model

import "time"

// Role values form a fixed, closed set.  Endpoint access is granted per
// route by enumerating the roles allowed to call it; there is no
// hierarchy between roles.
const (
	RoleAdmin   = "admin"
	RoleAthlete = "athlete"
	RoleCoach   = "coach"
)

// Role sets reused across route registrations.  They mirror the access
// tiers of the platform: every signed-in user, staff (admin or coach),
// and administrators only.
var (
	AllRoles      = []string{RoleAdmin, RoleAthlete, RoleCoach}
	ElevatedRoles = []string{RoleAdmin, RoleCoach}
	AdminOnly     = []string{RoleAdmin}
)

// ValidRole reports whether r names one of the known roles.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleAthlete || r == RoleCoach
}

// User represents an account record as stored in the `users` table.
// PasswordHash holds a bcrypt digest of either the user's password or,
// while IsUseOTP is set, of a server-issued one-time password.  The two
// are deliberately stored in the same column: issuing an OTP replaces
// the password rather than supplementing it.
//
// Fields:
//
//	ID           – opaque identifier (uuid string, users.id).
//	Username     – unique login name.
//	Name         – display name.
//	PasswordHash – bcrypt digest of the current credential.
//	Role         – one of RoleAdmin/RoleAthlete/RoleCoach.
//	IsUseOTP     – next login must present the issued OTP.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsUseOTP     bool      `json:"is_use_otp"`
	CreatedAt    time.Time `json:"created_time"`
}
