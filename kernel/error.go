package kernel

// Error describes a kernel error. Errors are raised from interrupt bodies and
// fatal paths that must not allocate, so errors.New is off limits and every
// kernel error is declared up front as a package-level *Error value.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
