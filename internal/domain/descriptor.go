package domain

// ColumnType is the element type of a signature column.
type ColumnType string

// ColumnTypeString marks string-valued columns.
const ColumnTypeString ColumnType = "STR"

// VariableDim marks a dimension of unknown length in a column shape.
const VariableDim = -1

// MaxInputColumns is the widest batch the UDF accepts.
const MaxInputColumns = 3

// OutputColumnName is the name of the single output column.
const OutputColumnName = "response"

var inputColumnNames = []string{"query", "content", "prompt"}

// ColumnSignature declares one column of an input or output signature.
type ColumnSignature struct {
	Name  string     `json:"name"`
	Type  ColumnType `json:"type"`
	Shape []int      `json:"shape"`
}

// Signature is an ordered list of column declarations.
type Signature struct {
	Columns []ColumnSignature `json:"columns"`
}

// Descriptor is the static registration record a host engine reads to plan
// around a UDF: its schema plus caching and scheduling hints.
type Descriptor struct {
	Name      string      `json:"name"`
	Category  string      `json:"category"`
	Cacheable bool        `json:"cacheable"`
	Batchable bool        `json:"batchable"`
	Inputs    []Signature `json:"inputs"`
	Outputs   []Signature `json:"outputs"`
}

// ChatCompletionInputSignature is the query/content/prompt input signature.
func ChatCompletionInputSignature() Signature {
	return Signature{Columns: []ColumnSignature{
		{Name: inputColumnNames[0], Type: ColumnTypeString, Shape: []int{1}},
		{Name: inputColumnNames[1], Type: ColumnTypeString, Shape: []int{1}},
		{Name: inputColumnNames[2], Type: ColumnTypeString, Shape: []int{VariableDim}},
	}}
}

// ChatCompletionOutputSignature is the single response column signature.
func ChatCompletionOutputSignature() Signature {
	return Signature{Columns: []ColumnSignature{
		{Name: OutputColumnName, Type: ColumnTypeString, Shape: []int{1}},
	}}
}
