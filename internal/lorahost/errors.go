package lorahost

// unauthorizedError signals a 401/403 from the host, surfaced distinctly
// so the caller can render an "add your token" message.
type unauthorizedError struct{ ref string }

func (e unauthorizedError) Error() string {
	return "lora host rejected the request for " + e.ref + ": an API token is required"
}

// ErrUnauthorized constructs an unauthorizedError.
func ErrUnauthorized(ref string) error { return unauthorizedError{ref: ref} }

// IsUnauthorized reports whether err indicates an auth rejection.
func IsUnauthorized(err error) bool {
	_, ok := err.(unauthorizedError)
	return ok
}

// notFoundError indicates the host has no entry for the reference.
type notFoundError struct{ ref string }

func (e notFoundError) Error() string { return "lora host has no entry for " + e.ref }

// IsNotFound reports whether err indicates a missing host entry.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// transientError covers every other host/network failure; retryable.
type transientError struct{ msg string }

func (e transientError) Error() string { return e.msg }

// IsTransient reports whether err is a retryable host failure.
func IsTransient(err error) bool {
	_, ok := err.(transientError)
	return ok
}
