// Package apperr defines the error taxonomy for repository operations and
// the classification of HTTP responses into commit outcomes.
package apperr

import "fmt"

// Outcome is the classification of an API response.
//
// Conflict is the only non-Ok outcome that guarantees no partial write
// occurred; the commit may be retried with a refreshed revision. Every other
// failure is terminal for that attempt.
type Outcome int

const (
	Ok Outcome = iota
	Conflict
	Unauthorized
	ClientError
	ServerError
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case Conflict:
		return "conflict"
	case Unauthorized:
		return "unauthorized"
	case ClientError:
		return "client_error"
	case ServerError:
		return "server_error"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Classify maps an HTTP status code to exactly one Outcome. 401 and 409 are
// carved out of the 4xx range; everything below 400 counts as Ok so that
// informational and redirect statuses do not read as failures.
func Classify(status int) Outcome {
	switch {
	case status == 401:
		return Unauthorized
	case status == 409:
		return Conflict
	case status >= 500:
		return ServerError
	case status >= 400:
		return ClientError
	default:
		return Ok
	}
}

// Err returns the sentinel error for a non-Ok outcome, wrapped with the
// status code for ClientError and ServerError. Ok yields nil.
func (o Outcome) Err(status int) error {
	switch o {
	case Ok:
		return nil
	case Conflict:
		return ErrConflict
	case Unauthorized:
		return ErrUnauthorized
	case ClientError:
		if status == 404 {
			return ErrNotFound
		}
		return fmt.Errorf("request rejected with status %d", status)
	default:
		return fmt.Errorf("server failure with status %d", status)
	}
}
