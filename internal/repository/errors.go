// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors.  Anything that is not one of these sentinels
// is an infrastructure failure and surfaces as a 5xx response, never as a
// credential error.
package repository

import "errors"

// ErrNotFound is returned when a lookup by id or username matches no
// record.  Handlers translate it into 404, or into the uniform
// bad-credentials response on the login path.
var ErrNotFound = errors.New("record not found")

// ErrUsernameExists is returned when creating a user with a username that
// is already taken.  Handlers should translate this into HTTP 400.
var ErrUsernameExists = errors.New("username already exists")
