// Package schema defines the structured description of a generated
// application's entity: its fields, their logical types, and the set of
// enabled CRUD operations. Schemas are produced by the inference engine,
// reshaped by the refinement engine, and consumed read-only by the
// application synthesizer.
package schema

import (
	"fmt"
	"strconv"
)

// FieldType is the closed set of logical field types a schema may use.
// Near-miss type names can arrive from model output; the type mapper treats
// anything outside this set as string and reports a warning.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeEmail   FieldType = "email"
	TypeText    FieldType = "text"
)

// IDFieldName is the reserved name of the synthetic primary key field.
const IDFieldName = "id"

// Operation names recognized in SchemaDefinition.Operations.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpDelete = "delete"
)

// AllOperations returns the full operation set in canonical order.
func AllOperations() []string {
	return []string{OpCreate, OpRead, OpUpdate, OpDelete}
}

// FieldDefinition describes one persisted field of the entity.
type FieldDefinition struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Label        string    `json:"label"`
	Type         FieldType `json:"type"`
	Required     bool      `json:"required"`
	DefaultValue *string   `json:"defaultValue,omitempty"`
}

// IsID reports whether this is the synthetic primary key field.
func (f FieldDefinition) IsID() bool {
	return f.Name == IDFieldName
}

// SchemaDefinition describes the single entity a generated application
// manages. Field order is meaningful: it drives generated form and table
// column order.
type SchemaDefinition struct {
	EntityName string            `json:"entityName"`
	Fields     []FieldDefinition `json:"fields"`
	Operations map[string]bool   `json:"operations"`
}

// Field returns the field with the given name.
func (s SchemaDefinition) Field(name string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// DataFields returns every field except the synthetic id, in schema order.
// These are the writable fields of a generated create form.
func (s SchemaDefinition) DataFields() []FieldDefinition {
	out := make([]FieldDefinition, 0, len(s.Fields))
	for _, f := range s.Fields {
		if !f.IsID() {
			out = append(out, f)
		}
	}
	return out
}

// TableColumns returns all fields with the id field moved to the front,
// which is the column order every rendered listing uses. The id's insertion
// position inside Fields itself is not otherwise constrained.
func (s SchemaDefinition) TableColumns() []FieldDefinition {
	out := make([]FieldDefinition, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.IsID() {
			out = append(out, f)
		}
	}
	for _, f := range s.Fields {
		if !f.IsID() {
			out = append(out, f)
		}
	}
	return out
}

// OperationEnabled reports whether the named operation is enabled.
func (s SchemaDefinition) OperationEnabled(op string) bool {
	return s.Operations[op]
}

// Validate checks the structural invariants: a non-empty entity name,
// unique field names, and exactly one id field of type number.
func (s SchemaDefinition) Validate() error {
	if s.EntityName == "" {
		return fmt.Errorf("schema has no entity name")
	}
	seen := make(map[string]bool, len(s.Fields))
	idCount := 0
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %s has a field with no name", s.EntityName)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema %s has duplicate field %q", s.EntityName, f.Name)
		}
		seen[f.Name] = true
		if f.IsID() {
			idCount++
			if f.Type != TypeNumber {
				return fmt.Errorf("schema %s id field must have type number, got %q", s.EntityName, f.Type)
			}
			if !f.Required {
				return fmt.Errorf("schema %s id field must be required", s.EntityName)
			}
		}
	}
	if idCount != 1 {
		return fmt.Errorf("schema %s must have exactly one id field, got %d", s.EntityName, idCount)
	}
	return nil
}

// EnsureIDField prepends the synthetic id field when no field named id
// exists, and reindexes every field's positional identifier. Fields produced
// by model output arrive without stable IDs; the positional index is the
// stable identifier contract.
func EnsureIDField(fields []FieldDefinition) []FieldDefinition {
	hasID := false
	for _, f := range fields {
		if f.IsID() {
			hasID = true
			break
		}
	}
	if !hasID {
		fields = append([]FieldDefinition{{
			Name:     IDFieldName,
			Label:    "ID",
			Type:     TypeNumber,
			Required: true,
		}}, fields...)
	}
	for i := range fields {
		fields[i].ID = strconv.Itoa(i)
	}
	return fields
}
