package engine

// busyError signals that a batch is already running. The caller is
// expected to surface a "cancel the current download first" affordance.
type busyError struct{ kind string }

func (e busyError) Error() string { return "download engine busy: " + e.kind + " batch active" }

// ErrBusy constructs a busyError for the given active batch kind.
func ErrBusy(kind string) error { return busyError{kind: kind} }

// IsBusy reports whether err indicates an already-active batch.
func IsBusy(err error) bool {
	_, ok := err.(busyError)
	return ok
}

// unauthorizedError signals a 401/403 from the remote host, distinct from
// generic network failure so callers can prompt for a token.
type unauthorizedError struct{ url string }

func (e unauthorizedError) Error() string {
	return "unauthorized: the host rejected the request for " + e.url + " (supply an API token)"
}

// ErrUnauthorized constructs an unauthorizedError.
func ErrUnauthorized(url string) error { return unauthorizedError{url: url} }

// IsUnauthorized reports whether err indicates an auth rejection.
func IsUnauthorized(err error) bool {
	_, ok := err.(unauthorizedError)
	return ok
}

// cancelledError marks a transfer aborted by user cancellation. It is
// delivered through the Failed-shaped channel but is not an error for
// logging/metrics purposes.
type cancelledError struct{}

func (cancelledError) Error() string { return "cancelled" }

// IsCancelled reports whether err indicates user cancellation.
func IsCancelled(err error) bool {
	_, ok := err.(cancelledError)
	return ok
}
