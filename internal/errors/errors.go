// Package errors provides error handling for schemats.
//
// This package re-exports github.com/cockroachdb/errors and defines the error
// kinds produced while converting schema descriptions into declarations:
//
//	ErrConflictingOptionality  a field's allowed values contradict its presence
//	ErrAmbiguousArrayShape     an array declares both items and ordered elements
//	ErrDuplicateTypeName       two different definitions share a declared name
//	ErrUnresolvedTypeReference a named reference never resolved before emission
//
// Typed errors carry the locations needed to find the offending schema and
// match their sentinel with errors.Is:
//
//	var dup *errors.DuplicateTypeNameError
//	if errors.As(err, &dup) {
//	    fmt.Println(dup.First, dup.Second)
//	}
package errors

import (
	"fmt"
	"strings"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	FlattenHints  = crdb.FlattenHints
	GetAllDetails = crdb.GetAllDetails
)

// Error kinds. Use these with Is; wrap them to add context.
var (
	// ErrConflictingOptionality: the allowed-value set contradicts required/optional.
	ErrConflictingOptionality = New("conflicting optionality specification")

	// ErrAmbiguousArrayShape: items and ordered elements on the same array.
	// Recovered locally by the engine; surfaced only as a diagnostic.
	ErrAmbiguousArrayShape = New("ambiguous array shape")

	// ErrDuplicateTypeName: a declared name registered with two different definitions.
	ErrDuplicateTypeName = New("duplicate type name conflict")

	// ErrUnresolvedTypeReference: a named reference with no registered definition.
	ErrUnresolvedTypeReference = New("unresolved type reference")

	// ErrRegistryFinalized: a mutation was attempted after the run was finalized.
	ErrRegistryFinalized = New("registry already finalized")
)

// ConflictingOptionalityError reports a field whose allowed values include the
// undefined marker while the field's presence forbids it.
type ConflictingOptionalityError struct {
	Location string
	Reason   string
}

func (e *ConflictingOptionalityError) Error() string {
	return fmt.Sprintf("%s at %s: %s", ErrConflictingOptionality, e.Location, e.Reason)
}

func (e *ConflictingOptionalityError) Is(target error) bool {
	return target == ErrConflictingOptionality
}

// AmbiguousArrayShapeError describes an array node carrying both item forms.
type AmbiguousArrayShapeError struct {
	Location string
}

func (e *AmbiguousArrayShapeError) Error() string {
	return fmt.Sprintf("%s at %s: items and ordered are mutually exclusive", ErrAmbiguousArrayShape, e.Location)
}

func (e *AmbiguousArrayShapeError) Is(target error) bool {
	return target == ErrAmbiguousArrayShape
}

// DuplicateTypeNameError identifies both definitions of a conflicting name.
type DuplicateTypeNameError struct {
	Name   string
	First  string
	Second string
}

func (e *DuplicateTypeNameError) Error() string {
	return fmt.Sprintf("%s: %q is declared at %s and differently at %s", ErrDuplicateTypeName, e.Name, e.First, e.Second)
}

func (e *DuplicateTypeNameError) Is(target error) bool {
	return target == ErrDuplicateTypeName
}

// UnresolvedTypeReferenceError lists every place a missing name was used.
type UnresolvedTypeReferenceError struct {
	Name      string
	Locations []string
}

func (e *UnresolvedTypeReferenceError) Error() string {
	where := "unknown location"
	if len(e.Locations) > 0 {
		where = strings.Join(e.Locations, ", ")
	}
	return fmt.Sprintf("%s: %q referenced from %s", ErrUnresolvedTypeReference, e.Name, where)
}

func (e *UnresolvedTypeReferenceError) Is(target error) bool {
	return target == ErrUnresolvedTypeReference
}

// NewConflictingOptionality builds a ConflictingOptionalityError with a user hint.
func NewConflictingOptionality(location, reason string) error {
	return WithHint(
		&ConflictingOptionalityError{Location: location, Reason: reason},
		"express optionality with `required` only; remove the undefined marker from `allow`",
	)
}

// NewDuplicateTypeName builds a DuplicateTypeNameError with a user hint.
func NewDuplicateTypeName(name, first, second string) error {
	return WithHintf(
		&DuplicateTypeNameError{Name: name, First: first, Second: second},
		"rename one of the schemas declaring %q or make both definitions identical", name,
	)
}

// NewUnresolvedTypeReference builds an UnresolvedTypeReferenceError with a user hint.
func NewUnresolvedTypeReference(name string, locations []string) error {
	return WithHintf(
		&UnresolvedTypeReferenceError{Name: name, Locations: locations},
		"declare a schema with name %q in one of the converted files", name,
	)
}
