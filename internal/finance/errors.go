package finance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUser means the caller passed a user id that cannot belong to
	// an authenticated user. It signals a bug upstream, not bad data.
	ErrInvalidUser = errors.New("invalid user id")

	ErrInvalidPeriod = errors.New("period start is after its end")
)

// DataAccessError reports a failed read against the data store. Its message
// is safe to show to clients; the cause is only reachable through Unwrap.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("finance: data access failed during %s", e.Op)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// IsDataAccess reports whether err is, or wraps, a DataAccessError.
func IsDataAccess(err error) bool {
	var dae *DataAccessError
	return errors.As(err, &dae)
}
