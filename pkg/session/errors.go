package session

import (
	"errors"
	"fmt"
)

// Recoverable session errors. The session stays usable after any of them.
var (
	ErrNoCategorySelected = errors.New("no category selected")
	ErrNoAnnotations      = errors.New("no annotations to save")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownKey         = errors.New("unknown key")
	ErrNoImage            = errors.New("no image loaded")
	ErrNoMoreImages       = errors.New("no more images")
)

// OutputError reports that a crop could not be written. The output location
// is unusable, so the session should be stopped.
type OutputError struct {
	Op   string // "mkdir" or "write"
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err should end the session
func IsFatal(err error) bool {
	var outErr *OutputError
	return errors.As(err, &outErr)
}
