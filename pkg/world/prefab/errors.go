package prefab

import "fmt"

// MalformedError reports a prefab file whose contents are inconsistent
// or use an unsupported format version.
type MalformedError struct {
	Name   string
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prefab %q malformed: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("prefab %q malformed: %s", e.Name, e.Reason)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// InvalidRotationError reports a paste rotation that is not a multiple of
// 90 degrees.
type InvalidRotationError struct {
	Degrees int
}

func (e *InvalidRotationError) Error() string {
	return fmt.Sprintf("rotation %d is not a multiple of 90 degrees", e.Degrees)
}
