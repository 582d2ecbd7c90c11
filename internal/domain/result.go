package domain

// RowResult is the outcome of one row: either a model answer (Success) or the
// text of the last remote error (Failure). Both variants render into the same
// response column, so callers that need to tell them apart must use OK.
type RowResult struct {
	// Text is the model answer for a Success.
	Text string

	// Err is the last error for a Failure.
	Err error

	// Attempts is the number of remote calls made for the row.
	Attempts int
}

// Success builds a successful row result.
func Success(text string, attempts int) RowResult {
	return RowResult{Text: text, Attempts: attempts}
}

// Failure builds a failed row result from the last error seen.
func Failure(err error, attempts int) RowResult {
	return RowResult{Err: err, Attempts: attempts}
}

// OK reports whether the row holds a model answer.
func (r RowResult) OK() bool {
	return r.Err == nil
}

// String returns the value written to the response column.
func (r RowResult) String() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Text
}
