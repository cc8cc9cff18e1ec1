package faults

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTimeout          = errors.New("timeout")
	ErrInvalidState     = errors.New("invalid state")
	ErrUnsupported      = errors.New("unsupported operation")
	ErrNotFound         = errors.New("not found")
	ErrSystemFailure    = errors.New("system failure")
)

// Classifier lets an error declare its own category.
type Classifier interface {
	FaultCategory() Category
}

// Wrap builds an error message that includes the affected subject and
// operation while tagging it with marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, subject, operation, message string, err error) error {
	detail := buildDetail(subject, operation, message)
	if marker == nil {
		if err != nil {
			return fmt.Errorf("%s: %w", detail, err)
		}
		return errors.New(detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsCancellation reports whether err comes from caller cancellation. Such
// errors propagate as-is and are never classified.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Classify maps an error onto the taxonomy.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	var classifier Classifier
	if errors.As(err, &classifier) {
		return classifier.FaultCategory()
	}
	switch {
	case errors.Is(err, ErrSystemFailure):
		return CategorySystemFailure
	case errors.Is(err, ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded):
		return CategoryTimeout
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, os.ErrPermission):
		return CategoryPermissionDenied
	case errors.Is(err, ErrInvalidInput):
		return CategoryInvalidInput
	case errors.Is(err, ErrInvalidState):
		return CategoryInvalidState
	case errors.Is(err, ErrUnsupported), errors.Is(err, errors.ErrUnsupported):
		return CategoryUnsupportedOperation
	case errors.Is(err, ErrNotFound), errors.Is(err, os.ErrNotExist):
		return CategoryItemNotFound
	default:
		return CategoryUnknown
	}
}

func buildDetail(subject, operation, message string) string {
	parts := make([]string, 0, 3)
	if subject = strings.TrimSpace(subject); subject != "" {
		parts = append(parts, subject)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "sync failure"
	}
	return strings.Join(parts, ": ")
}
