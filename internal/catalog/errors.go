package catalog

// unavailableError signals that every catalog source (cache, remote,
// bundled) was exhausted. Fatal to any resolution; retry is manual.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return "catalog unavailable: " + e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates all catalog sources failed.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}
