package fs

import (
	"errors"
)

// Error categories of file system operations. Errors returned by backends
// match one of these with errors.Is.
var (
	ErrPathNotFound       = errors.New("path not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrConfiguration      = errors.New("invalid backend configuration")
	ErrParse              = errors.New("unexpected command output")
	ErrTransfer           = errors.New("transfer failed")
	ErrCommandFailed      = errors.New("command failed")
	ErrNotImplemented     = errors.New("not implemented")
)

var _ error = &OpError{}

// OpError records a failed operation on a path.
type OpError struct {
	// Op is the operation, e.g. "size" or "copy".
	Op   string
	Path string
	// Kind is one of the error category variables of this package.
	Kind error
	// Err is the underlying error, may be nil.
	Err error
}

func newOpError(op, path string, kind, err error) *OpError {
	return &OpError{
		Op:   op,
		Path: path,
		Kind: kind,
		Err:  err,
	}
}

func (o *OpError) Error() string {
	msg := o.Op + " " + o.Path + ": " + o.Kind.Error()
	if o.Err != nil {
		msg += ": " + o.Err.Error()
	}
	return msg
}

func (o *OpError) Unwrap() []error {
	if o.Err == nil {
		return []error{o.Kind}
	}
	return []error{o.Kind, o.Err}
}
