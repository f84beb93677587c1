package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by every stage of an import.
var (
	// ErrInvalidInput aborts the run before any network activity.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidIdentifier indicates a DOI that cannot be normalized.
	ErrInvalidIdentifier = fmt.Errorf("%w: invalid identifier", ErrInvalidInput)

	// ErrMissingColumn indicates the input dataset lacks the "doi" column.
	ErrMissingColumn = fmt.Errorf("%w: missing required column", ErrInvalidInput)

	// ErrUnsupportedWorkType aborts the import of a single record.
	ErrUnsupportedWorkType = errors.New("unsupported work type")

	// ErrUnresolvableVenue indicates the venue could not be linked.
	ErrUnresolvableVenue = errors.New("unresolvable venue")

	// ErrMalformedDate indicates a publication date in an unexpected format.
	ErrMalformedDate = errors.New("malformed publication date")

	// ErrTransport indicates a network or authentication failure talking to a collaborator.
	ErrTransport = errors.New("transport failure")
)

// UnsupportedWorkTypeError carries the work type missing from the mapping table.
type UnsupportedWorkTypeError struct {
	Type         string
	TableVersion int      // Version of the mapping table consulted, 0 if unknown
	Supported    []string // Types the table does map
}

func (e *UnsupportedWorkTypeError) Error() string {
	msg := fmt.Sprintf("%s: %q is not in the mapping table", ErrUnsupportedWorkType, e.Type)
	if e.TableVersion > 0 {
		msg += fmt.Sprintf(" v%d", e.TableVersion)
	}
	if len(e.Supported) > 0 {
		msg += " (supported: " + strings.Join(e.Supported, ", ") + ")"
	}
	return msg
}

func (e *UnsupportedWorkTypeError) Unwrap() error {
	return ErrUnsupportedWorkType
}

// IsRecordFatal reports whether err aborts a single record but not the batch.
func IsRecordFatal(err error) bool {
	return errors.Is(err, ErrUnsupportedWorkType) ||
		errors.Is(err, ErrUnresolvableVenue) ||
		errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ErrTransport)
}
