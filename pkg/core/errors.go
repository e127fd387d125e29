package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrNotFound is returned when an operation requires an indexed document
	// and the identifier is unknown.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidDocument is returned when a document cannot be stored at all
	// (nil or without identifier).
	ErrInvalidDocument = errors.New("invalid document")

	// ErrWatchUnsupported is returned by Watch when the library is not backed
	// by the operating system's filesystem.
	ErrWatchUnsupported = errors.New("watching is not supported by this store")
)

// FormatError reports a byte stream that is not a recognizable document.
type FormatError struct {
	Source string // file or entry name, when known
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := "unrecognized document format"
	if e.Source != "" {
		msg += " in " + e.Source
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// SchemaError reports a recognizable document written with an incompatible
// schema version.
type SchemaError struct {
	Source  string
	Version string
}

func (e *SchemaError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("incompatible document version %q in %s", e.Version, e.Source)
	}
	return fmt.Sprintf("incompatible document version %q", e.Version)
}

// NameConflictError is returned when a rename targets a file name already used
// by a different document. The caller must pick another name.
type NameConflictError struct {
	ID   string
	Name string // the conflicting file name
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("cannot rename document %s: file %q already exists", e.ID, e.Name)
}

// UnknownFormatError is returned when no importer recognizes a bundle.
type UnknownFormatError struct {
	Source string
}

func (e *UnknownFormatError) Error() string {
	if e.Source == "" {
		return "unknown bundle format"
	}
	return fmt.Sprintf("unknown bundle format: %s", e.Source)
}

// InvalidFormatError is returned when a recognized bundle (or one of its
// entries) is structurally malformed.
type InvalidFormatError struct {
	Format string
	Entry  string // empty when the whole bundle is affected
	Err    error
}

func (e *InvalidFormatError) Error() string {
	msg := "invalid " + e.Format + " bundle"
	if e.Format == "" {
		msg = "invalid bundle"
	}
	if e.Entry != "" {
		msg += " entry " + e.Entry
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidFormatError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means the document is not indexed.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNameConflict reports whether err is a NameConflictError.
func IsNameConflict(err error) bool {
	var target *NameConflictError
	return errors.As(err, &target)
}
