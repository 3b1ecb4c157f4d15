package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicateContent is returned when a job source with the same content
	// hash already exists. Callers treat it as a dedup signal, not a failure.
	ErrDuplicateContent = errors.New("duplicate content hash")
)

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
