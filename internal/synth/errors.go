package synth

import "fmt"

// SynthesisError reports a failed application synthesis. Any artifact
// failure aborts the whole run; nothing is registered on failure.
type SynthesisError struct {
	ProjectID string
	Stage     string
	Err       error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis of project %s failed at %s: %v", e.ProjectID, e.Stage, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
