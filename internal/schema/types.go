package schema

// TypeMapping holds the three projections of a logical field type: the SQL
// column type used by the generated data model, the HTML input kind used by
// the generated create form, and the Go placeholder type used for generated
// form-parameter declarations.
type TypeMapping struct {
	Storage string
	Input   string
	Go      string
}

var typeTable = map[FieldType]TypeMapping{
	TypeString:  {Storage: "VARCHAR(255)", Input: "text", Go: "string"},
	TypeNumber:  {Storage: "INTEGER", Input: "number", Go: "int"},
	TypeBoolean: {Storage: "BOOLEAN", Input: "checkbox", Go: "bool"},
	TypeDate:    {Storage: "DATETIME", Input: "date", Go: "string"},
	TypeEmail:   {Storage: "VARCHAR(255)", Input: "email", Go: "string"},
	TypeText:    {Storage: "TEXT", Input: "text", Go: "string"},
}

// MapType resolves a logical type to its projections. Lookup is total:
// an unrecognized type resolves to the string mapping with known=false so
// the caller can report a warning instead of failing. Model output uses
// near-miss type names often enough that failing here would be wrong.
func MapType(t FieldType) (m TypeMapping, known bool) {
	if m, ok := typeTable[t]; ok {
		return m, true
	}
	return typeTable[TypeString], false
}
