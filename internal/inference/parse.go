package inference

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// schemaReply is the JSON shape the output contract asks the model for.
// Fields is a pointer so a missing key can be told apart from an empty list:
// inference tolerates a missing key (the synthetic id still yields a valid
// schema) while refinement treats it as a hard parse failure.
type schemaReply struct {
	EntityName string        `json:"entityName"`
	Fields     *[]fieldReply `json:"fields"`
}

type fieldReply struct {
	Name         string  `json:"name"`
	Label        string  `json:"label"`
	Type         string  `json:"type"`
	Required     bool    `json:"required"`
	DefaultValue *string `json:"defaultValue"`
}

var fencePattern = regexp.MustCompile("```[a-zA-Z]*\n?|```")

// stripFences removes markdown code-fence delimiters from a model reply.
func stripFences(s string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(s, ""))
}

// extractObject returns the first balanced {...} span in the text, honoring
// JSON string literals and escapes. Returns "" when no balanced object
// exists. This is a pragmatic heuristic: a reply holding several
// brace-delimited blocks yields only the first.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// parseSchemaReply turns a raw model reply into a schemaReply using the
// two-stage recovery: fence-strip, strict JSON parse, then a retry on the
// first balanced brace span. Both failures surface as one SchemaParseError.
func parseSchemaReply(raw string) (*schemaReply, error) {
	cleaned := stripFences(raw)

	var reply schemaReply
	strictErr := json.Unmarshal([]byte(cleaned), &reply)
	if strictErr == nil {
		return &reply, nil
	}

	span := extractObject(cleaned)
	if span == "" {
		return nil, &SchemaParseError{Raw: raw, Err: strictErr}
	}
	if err := json.Unmarshal([]byte(span), &reply); err != nil {
		return nil, &SchemaParseError{Raw: raw, Err: err}
	}
	return &reply, nil
}

// requireFields returns the reply's field list or a parse error when the
// fields key was absent.
func (r *schemaReply) requireFields() ([]fieldReply, error) {
	if r.Fields == nil {
		return nil, &SchemaParseError{Err: fmt.Errorf("reply has no fields key")}
	}
	return *r.Fields, nil
}

// fieldsOrEmpty returns the reply's field list, treating an absent key as
// empty.
func (r *schemaReply) fieldsOrEmpty() []fieldReply {
	if r.Fields == nil {
		return nil
	}
	return *r.Fields
}
