// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when registering a taken username.
var ErrUsernameExists = errors.New("username already exists")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own.  Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// isDuplicateKey reports whether err is MySQL error 1062.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
