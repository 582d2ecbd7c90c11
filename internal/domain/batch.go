package domain

import "fmt"

// Column is a named, ordered sequence of string cells.
type Column struct {
	// Name is informational only; columns are interpreted by position.
	Name string `json:"name"`

	// Values holds one cell per row.
	Values []string `json:"values"`
}

// Batch is a table of rows processed together by one Forward call.
// Columns are interpreted positionally: query, content, prompt.
type Batch struct {
	Columns []Column `json:"columns" binding:"required,min=1,max=3,dive"`
}

// NewBatch builds a batch from positional columns named after the input signature.
func NewBatch(columns ...[]string) Batch {
	b := Batch{Columns: make([]Column, len(columns))}
	for i, values := range columns {
		name := fmt.Sprintf("col%d", i)
		if i < len(inputColumnNames) {
			name = inputColumnNames[i]
		}
		b.Columns[i] = Column{Name: name, Values: values}
	}
	return b
}

// NumRows returns the number of rows, taken from the first column.
func (b Batch) NumRows() int {
	if len(b.Columns) == 0 {
		return 0
	}
	return len(b.Columns[0].Values)
}

// Validate checks the positional 1 to 3 column layout and that every column
// has the same number of rows.
func (b Batch) Validate() error {
	if len(b.Columns) < 1 || len(b.Columns) > MaxInputColumns {
		return &SchemaError{Reason: fmt.Sprintf("expected 1 to %d columns, got %d", MaxInputColumns, len(b.Columns))}
	}

	rows := b.NumRows()
	for i, col := range b.Columns[1:] {
		if len(col.Values) != rows {
			return &SchemaError{Reason: fmt.Sprintf(
				"column %d has %d rows, column 0 has %d", i+1, len(col.Values), rows)}
		}
	}
	return nil
}

// Queries returns column 0.
func (b Batch) Queries() []string {
	if len(b.Columns) == 0 {
		return nil
	}
	return b.Columns[0].Values
}

// Contents returns column 1, or column 0 when the batch has a single column.
func (b Batch) Contents() []string {
	if len(b.Columns) > 1 {
		return b.Columns[1].Values
	}
	return b.Queries()
}

// Prompt returns the row 0 value of column 2. The second return value is false
// when the batch has no prompt column or no rows.
func (b Batch) Prompt() (string, bool) {
	if len(b.Columns) < 3 || len(b.Columns[2].Values) == 0 {
		return "", false
	}
	return b.Columns[2].Values[0], true
}

// OutputBatch is the single-column result of a Forward call.
type OutputBatch struct {
	// Results holds one entry per input row, in input order.
	Results []RowResult `json:"-"`

	// Usage sums the token usage reported by the remote API for this batch.
	Usage Usage `json:"usage"`
}

// Column returns the response column: each row's answer or error text.
func (o OutputBatch) Column() Column {
	values := make([]string, len(o.Results))
	for i, r := range o.Results {
		values[i] = r.String()
	}
	return Column{Name: OutputColumnName, Values: values}
}

// NumRows returns the number of result rows.
func (o OutputBatch) NumRows() int {
	return len(o.Results)
}

// FailedRows returns the number of rows whose result is a Failure.
func (o OutputBatch) FailedRows() int {
	failed := 0
	for _, r := range o.Results {
		if !r.OK() {
			failed++
		}
	}
	return failed
}

// Attempts returns the total number of remote calls made for the batch.
func (o OutputBatch) Attempts() int {
	total := 0
	for _, r := range o.Results {
		total += r.Attempts
	}
	return total
}

// Usage is token accounting reported by the chat-completion API.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
