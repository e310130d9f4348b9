package store

import (
	"errors"
	"strings"
)

// ErrDuplicateKey indicates an insert violated a uniqueness constraint,
// most notably the (source_name, source_id) natural key on listings.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrNotFound indicates the referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// isConstraintErr reports whether err is a SQLite constraint violation.
// modernc.org/sqlite exposes the result code through a Code method; the
// message check is a fallback for wrapped driver errors.
func isConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		// Primary code 19 (SQLITE_CONSTRAINT); extended codes keep it in
		// the low byte, e.g. 2067 SQLITE_CONSTRAINT_UNIQUE.
		if code := coder.Code(); code&0xff == 19 {
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_CONSTRAINT") || strings.Contains(msg, "constraint failed")
}
