package inspection

import (
	"errors"
	"fmt"
)

// Errors returned by the service. They are wrapped with context, so
// compare with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrIncompleteInspection = errors.New("inspection is incomplete")
	ErrMissingCondition     = errors.New("overall condition is required")
	ErrInvalidCondition     = errors.New("unknown condition")
	ErrInvalidImage         = errors.New("image is neither a url nor an uploaded file")
	ErrUploadFailed         = errors.New("image upload failed")
	ErrPersistence          = errors.New("saving failed")
	ErrAlreadyCompleted     = errors.New("inspection already completed")
	ErrAlreadySigned        = errors.New("report already signed")
)

func notFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
