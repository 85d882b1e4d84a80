package generate

import (
	"errors"
	"fmt"
)

// ErrEmptyReply is returned when the model produced no usable text
var ErrEmptyReply = errors.New("generate: empty reply")

// Error describes a failed generation request
type Error struct {
	Provider   string
	StatusCode int // zero when the request never got a response
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s generation failed (status=%d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsGenerationError reports whether err came from a generation provider
func IsGenerationError(err error) bool {
	var ge *Error
	return errors.As(err, &ge)
}
