package domain

import "errors"

var (
	// ErrInvalidInput is the parent of every error caused by a bad upload.
	// Input errors are reported before any provider call is made.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedCSV is returned when the uploaded file cannot be parsed as CSV
	ErrMalformedCSV = errors.New("CSV parsing error")

	// ErrEmptyInput is returned when the CSV has a header but no data rows
	ErrEmptyInput = errors.New("CSV file is empty or has no data rows")

	// ErrMissingColumns is returned when a required column is absent
	ErrMissingColumns = errors.New("CSV must contain 'Keywords', 'Brand', and 'Branch' columns")

	// ErrNoValidRows is returned when every row was dropped during filtering
	ErrNoValidRows = errors.New("no valid data rows found in CSV")

	// ErrProviderFailure is returned when the places API cannot be reached,
	// answers with a non-success status or returns an unreadable body.
	// It aborts the whole run.
	ErrProviderFailure = errors.New("places API request failed")

	// ErrMissingCredential is returned when no API key is configured
	ErrMissingCredential = errors.New("SERPER_API_KEY not configured")

	// ErrStreamDisconnected marks a run stopped because its consumer went away.
	// It is never reported to the consumer.
	ErrStreamDisconnected = errors.New("stream consumer disconnected")

	// ErrRunNotFound is returned when a run is unknown or has expired
	ErrRunNotFound = errors.New("run not found")

	// ErrRunIncomplete is returned when results are requested from a run
	// that did not complete
	ErrRunIncomplete = errors.New("run has no results")
)

// IsInputError reports whether err was caused by the uploaded data.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsProviderError reports whether err came from the places API.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProviderFailure)
}

// classified keeps the message of err while also matching class with errors.Is
type classified struct {
	class error
	err   error
}

func (e *classified) Error() string   { return e.err.Error() }
func (e *classified) Unwrap() []error { return []error{e.class, e.err} }

// InputError marks err as an input error without changing its message.
func InputError(err error) error {
	return &classified{class: ErrInvalidInput, err: err}
}

// ProviderError marks err as a provider error without changing its message.
func ProviderError(err error) error {
	return &classified{class: ErrProviderFailure, err: err}
}
