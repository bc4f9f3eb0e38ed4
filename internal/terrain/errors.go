package terrain

import (
	"fmt"
	"time"
)

// GenerationTimeoutError reports a terrain phase that did not finish
// before its deadline. No partial result is returned with it.
type GenerationTimeoutError struct {
	Region  string
	Timeout time.Duration
}

func (e *GenerationTimeoutError) Error() string {
	return fmt.Sprintf("terrain %s: generation exceeded %s", e.Region, e.Timeout)
}
