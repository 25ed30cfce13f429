package objfile

import "fmt"

// ErrorKind classifies the errors objfile can return while parsing.
type ErrorKind int

const (
	// EndOfData means the input was truncated partway through a section or
	// record array.
	EndOfData ErrorKind = iota
	// InvalidRecord means a record's embedded enum byte (Location, RefType,
	// RefUnknown) was out of range.
	InvalidRecord
)

// Error is the error type objfile.Parse returns for truncated input and
// invalid records; a bad magic or version is reported as a plain error.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func sectionError(name string) error {
	return &Error{Kind: EndOfData, Msg: fmt.Sprintf("reached end of data while parsing %s", name)}
}

func recordError(format string, args ...any) error {
	return &Error{Kind: InvalidRecord, Msg: fmt.Sprintf(format, args...)}
}
