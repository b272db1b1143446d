package inference

import "fmt"

// SchemaParseError reports a model reply that survived neither the strict
// JSON parse nor the brace-span recovery.
type SchemaParseError struct {
	Raw string
	Err error
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("could not parse schema from model reply: %v", e.Err)
}

func (e *SchemaParseError) Unwrap() error { return e.Err }

// SchemaGenerationError reports a failed inference call: either the
// text-generation call itself or the parse of its reply.
type SchemaGenerationError struct {
	Err error
}

func (e *SchemaGenerationError) Error() string {
	return fmt.Sprintf("failed to generate schema: %v", e.Err)
}

func (e *SchemaGenerationError) Unwrap() error { return e.Err }

// SchemaRefinementError reports a failed refinement call.
type SchemaRefinementError struct {
	Err error
}

func (e *SchemaRefinementError) Error() string {
	return fmt.Sprintf("failed to refine schema: %v", e.Err)
}

func (e *SchemaRefinementError) Unwrap() error { return e.Err }
