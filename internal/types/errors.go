// internal/types/errors.go
package types

import "fmt"

// SecretUnavailableError indicates the secret store was unreachable or the
// secret object was missing a required field.
type SecretUnavailableError struct {
	Key string
	Err error
}

func (e *SecretUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("secret %q unavailable: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("secret %q unavailable", e.Key)
}

func (e *SecretUnavailableError) Unwrap() error { return e.Err }

// ExtractionError indicates the inference backend failed or returned output
// that does not satisfy the extraction contract. Distinct from a valid
// "no event" classification.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// DateResolutionError indicates an extraction date/time could not be turned
// into a plausible absolute timestamp.
type DateResolutionError struct {
	Input  string
	Reason string
}

func (e *DateResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve date %q: %s", e.Input, e.Reason)
}

// AuthRefreshError indicates the refresh-token exchange failed.
type AuthRefreshError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *AuthRefreshError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token refresh failed (status %d): %s", e.StatusCode, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("token refresh failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("token refresh failed: %s", e.Reason)
}

func (e *AuthRefreshError) Unwrap() error { return e.Err }

// PublishError indicates the calendar backend rejected the event-creation
// request.
type PublishError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed (status %d): %s", e.StatusCode, e.Message)
}

func (e *PublishError) Unwrap() error { return e.Err }
