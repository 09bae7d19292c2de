package candidate

// UsageError reports top-level candidate input that matches none of the
// accepted shapes.
type UsageError struct {
	Reason string
	Err    error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return "invalid candidate input: " + e.Reason + ": " + e.Err.Error()
	}
	return "invalid candidate input: " + e.Reason
}

func (e *UsageError) Unwrap() error {
	return e.Err
}
