package jobs

import (
	"errors"
	"fmt"
)

// ValidationError reports unusable caller input. No state is mutated when it
// is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrorKind classifies the error for transport status mapping.
func (e *ValidationError) ErrorKind() string {
	return "validation"
}

// errJobNotFound aborts a store update when the target job is missing.
// Exported operations translate it into a nil job.
var errJobNotFound = errors.New("job not found")
