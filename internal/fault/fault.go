// Package fault classifies errors into the small set of conditions the API
// and job records need to distinguish. Errors are created with the kind
// constructors and recovered with KindOf, so intermediate layers can keep
// wrapping with fmt.Errorf("...: %w", err) as usual.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindUnknown covers everything not created by this package.
	KindUnknown Kind = iota
	// KindValidation is a bad or missing path/id/argument. User-fixable.
	KindValidation
	// KindForbidden is a path that resolves outside all managed roots.
	KindForbidden
	// KindMaintenanceRequired means the external maintenance flag is off.
	KindMaintenanceRequired
	// KindNotFound is an absent object, backup, or job.
	KindNotFound
	// KindStorage is a transport or object-store failure.
	KindStorage
	// KindIntegrity is a checksum mismatch. Never retried.
	KindIntegrity
	// KindArchive is a failure creating or unpacking an archive.
	KindArchive
	// KindConflict means a competing operation is already in flight.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindMaintenanceRequired:
		return "maintenance_required"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindIntegrity:
		return "integrity"
	case KindArchive:
		return "archive"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error carries a kind alongside the usual wrapped cause.
type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) Kind() Kind    { return e.kind }

// New wraps err with a kind. A nil err returns nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, err: err}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, err: fmt.Errorf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return Newf(KindValidation, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return Newf(KindForbidden, format, args...)
}

func MaintenanceRequiredf(format string, args ...any) error {
	return Newf(KindMaintenanceRequired, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return Newf(KindNotFound, format, args...)
}

func Storagef(format string, args ...any) error {
	return Newf(KindStorage, format, args...)
}

func Integrityf(format string, args ...any) error {
	return Newf(KindIntegrity, format, args...)
}

func Archivef(format string, args ...any) error {
	return Newf(KindArchive, format, args...)
}

func Conflictf(format string, args ...any) error {
	return Newf(KindConflict, format, args...)
}

// KindOf walks the wrap chain and returns the first classified kind,
// or KindUnknown when the error was never classified.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
