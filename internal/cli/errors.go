package cli

import stderrors "errors"

// reportedError marks an error that a renderer has already shown
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already shown to the user
func IsReported(err error) bool {
	var r *reportedError
	return stderrors.As(err, &r)
}
