package engine

import "errors"

var (
	ErrStatusDateMissing = errors.New("status date missing")
	ErrStatusDateInvalid = errors.New("status date invalid")
	ErrNoDataset         = errors.New("no dataset loaded")
	ErrMappingIncomplete = errors.New("required fields unmapped")
	ErrNothingToExport   = errors.New("nothing to export")
)

// PreconditionError aborts a run before any output is produced. Msg is the
// sentence shown to the user.
type PreconditionError struct {
	Kind error
	Msg  string
}

func (e *PreconditionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

func (e *PreconditionError) Unwrap() error { return e.Kind }

var messages = map[error]string{
	ErrStatusDateMissing: "Please set the status date.",
	ErrStatusDateInvalid: "Invalid status date.",
	ErrNoDataset:         "Please upload a CSV and ensure required columns are mapped.",
	ErrMappingIncomplete: "Please map Task Name, Start, and Finish in the column mapping section.",
	ErrNothingToExport:   "Generate the email body first.",
}

func precondition(kind error) error {
	return &PreconditionError{Kind: kind, Msg: messages[kind]}
}

// IsPrecondition reports whether err is a precondition failure.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
