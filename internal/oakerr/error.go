// Package oakerr defines the error taxonomy surfaced by the component
// and filer layers. Every failure condition has a stable serum code so
// callers can discriminate programmatically with serum.Code.
package oakerr

import (
	"github.com/serum-errors/go-serum"
)

const (
	// Configuration errors: a required parameter is absent. Fatal to the
	// construction in progress, never retried.
	CodeMissingFile           = "oak-error-missing-file"
	CodeMissingComponentName  = "oak-error-missing-component-name"
	CodeMissingOwnedClassname = "oak-error-missing-owned-classname"
	CodeMissingOwnedFile      = "oak-error-missing-owned-file"
	CodeCreatingOwned         = "oak-error-creating-owned"

	// Storage errors: surfaced verbatim, no retry or fallback filer.
	CodeReadingXML = "oak-error-reading-xml"
	CodeWritingXML = "oak-error-writing-xml"

	// Integrity errors: defend tree invariants. Fatal to the offending
	// call only; the tree stays usable.
	CodeAlreadyRegistered = "oak-error-already-registered"
	CodeNotRegistered     = "oak-error-not-registered"
	CodeAlreadyOwned      = "oak-error-already-owned"
)

// MissingFile is returned when a component filer is bound to a path
// that does not exist.
//
// Errors:
//
//   - oak-error-missing-file --
func MissingFile(path string) error {
	result := serum.Errorf(CodeMissingFile, "component document %q does not exist", path)
	addDetails(result, [][2]string{{"path", path}})
	return result
}

// MissingComponentName is returned when restore data carries no name.
//
// Errors:
//
//   - oak-error-missing-component-name --
func MissingComponentName() error {
	return serum.Errorf(CodeMissingComponentName, "restore data has no name property")
}

// MissingOwnedClassname is returned when an owned entry in a component
// document carries no classname, so no type can be constructed for it.
//
// Errors:
//
//   - oak-error-missing-owned-classname --
func MissingOwnedClassname(childName string) error {
	result := serum.Errorf(CodeMissingOwnedClassname, "owned component %q has no classname", childName)
	addDetails(result, [][2]string{{"child", childName}})
	return result
}

// MissingOwnedFile is returned when an owned entry names a classname
// that is not registered with the class registry.
//
// Errors:
//
//   - oak-error-missing-owned-file --
func MissingOwnedFile(classname string) error {
	result := serum.Errorf(CodeMissingOwnedFile, "classname %q is not registered", classname)
	addDetails(result, [][2]string{{"classname", classname}})
	return result
}

// CreatingOwned wraps a failure from an owned component's factory.
//
// Errors:
//
//   - oak-error-creating-owned --
func CreatingOwned(childName, classname string, cause error) error {
	result := serum.Errorf(CodeCreatingOwned,
		"creating owned component %q (classname %q): %w", childName, classname, cause)
	addDetails(result, [][2]string{
		{"child", childName},
		{"classname", classname},
	})
	return result
}

// ReadingXML wraps an unreadable or malformed component document.
//
// Errors:
//
//   - oak-error-reading-xml --
func ReadingXML(path string, cause error) error {
	result := serum.Errorf(CodeReadingXML, "reading component document %q: %w", path, cause)
	addDetails(result, [][2]string{{"path", path}})
	return result
}

// WritingXML wraps a failure to write a component document.
//
// Errors:
//
//   - oak-error-writing-xml --
func WritingXML(path string, cause error) error {
	result := serum.Errorf(CodeWritingXML, "writing component document %q: %w", path, cause)
	addDetails(result, [][2]string{{"path", path}})
	return result
}

// AlreadyRegistered is returned when a second child with the same name
// is registered under one owner. The first registration stays intact.
//
// Errors:
//
//   - oak-error-already-registered --
func AlreadyRegistered(name string) error {
	result := serum.Errorf(CodeAlreadyRegistered, "a child named %q is already registered", name)
	addDetails(result, [][2]string{{"name", name}})
	return result
}

// NotRegistered is returned for operations on a child name that is not
// in the owner's child set.
//
// Errors:
//
//   - oak-error-not-registered --
func NotRegistered(name string) error {
	result := serum.Errorf(CodeNotRegistered, "no child named %q is registered", name)
	addDetails(result, [][2]string{{"name", name}})
	return result
}

// AlreadyOwned is returned when a component that already has an owner
// is registered under another one. Re-parenting requires freeing the
// child first.
//
// Errors:
//
//   - oak-error-already-owned --
func AlreadyOwned(name string) error {
	result := serum.Errorf(CodeAlreadyOwned, "component %q already has an owner", name)
	addDetails(result, [][2]string{{"name", name}})
	return result
}

func addDetails(err error, details [][2]string) {
	s := err.(*serum.ErrorValue)
	s.Data.Details = append(s.Data.Details, details...)
}
