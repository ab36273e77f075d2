package types

import (
	"fmt"
	"strings"
)

// AddressPrefix is the literal tag every valid Address begins with.
const AddressPrefix = "orbitdb"

// Address is the immutable triple identifying a database: a literal prefix,
// the content hash of its manifest, and the human name given at creation.
type Address struct {
	Root string
	Path string
}

// String formats the address as /orbitdb/<root>/<path>.
func (a Address) String() string {
	return "/" + AddressPrefix + "/" + a.Root + "/" + a.Path
}

// ParseAddress parses a stringified address, rejecting anything whose first
// segment isn't "orbitdb", whose segment count isn't three, or whose root is
// empty.
func ParseAddress(s string) (Address, error) {
	trimmed := strings.TrimPrefix(s, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return Address{}, NewError(Malformed, fmt.Sprintf("not a valid driftdb address: %q", s))
	}
	if parts[0] != AddressPrefix {
		return Address{}, NewError(Malformed, fmt.Sprintf("not a valid driftdb address: %q", s))
	}
	if parts[1] == "" || parts[2] == "" {
		return Address{}, NewError(Malformed, fmt.Sprintf("not a valid driftdb address: %q", s))
	}
	return Address{Root: parts[1], Path: parts[2]}, nil
}

// IsValidAddress is the boolean form of ParseAddress.
func IsValidAddress(s string) bool {
	_, err := ParseAddress(s)
	return err == nil
}

// Manifest is the immutable, content-addressed descriptor of a database.
// Its content hash is the root of every Address referring to it.
type Manifest struct {
	Name             string         `refmt:"name"`
	Type             string         `refmt:"type"`
	AccessController string         `refmt:"accessController"`
	Defaults         map[string]any `refmt:"defaults,omitempty"`
}

// excludedOptionKeys is the legacy set of option keys the manifest writer's
// subtract-and-store mode never copies into a synthesized defaults bag. New
// callers should pass Defaults explicitly instead of relying on this mode.
var excludedOptionKeys = map[string]bool{
	"write":            true,
	"accessController": true,
	"overwrite":        true,
	"replicate":        true,
	"localOnly":        true,
	"create":           true,
	"type":             true,
	"defaults":         true,
	"mergeDefaults":    true,
}

// IsExcludedOptionKey reports whether a key belongs to the legacy excluded
// set from the manifest writer's subtract-and-store mode.
func IsExcludedOptionKey(key string) bool {
	return excludedOptionKeys[key]
}

// AccessControllerSpec describes the access controller to create or resolve
// for a database. Type defaults to "ipfs"; Name defaults to the database
// name when left blank.
type AccessControllerSpec struct {
	Type  string
	Name  string
	Write []string
	Read  []string
}

// CreateOptions configures Create. The zero value is valid and means
// "replicate, don't overwrite, no defaults, default access controller".
type CreateOptions struct {
	Type                    string
	Directory               string
	Overwrite               *bool // nil means false on Create, true when forwarded from Open's create path
	Replicate               *bool // nil means true
	LocalOnly               bool
	AccessController        *AccessControllerSpec
	AccessControllerAddress string
	Defaults                map[string]any
	IdentityID              string
	Meta                    map[string]string
}

// ReplicateOrDefault reports whether replication is enabled, defaulting to
// true when unset.
func (o CreateOptions) ReplicateOrDefault() bool {
	if o.Replicate == nil {
		return true
	}
	return *o.Replicate
}

// OverwriteOrDefault reports the effective overwrite flag, defaulting to
// false.
func (o CreateOptions) OverwriteOrDefault() bool {
	if o.Overwrite == nil {
		return false
	}
	return *o.Overwrite
}

// OpenOptions configures Open. It embeds CreateOptions so the create-on-open
// fallback path (Create:true) can forward the same option bag.
type OpenOptions struct {
	CreateOptions
	Create        bool
	MergeDefaults bool
}

// ErrorKind is the fixed set of error kinds the controller surfaces to
// callers, per the controller's error handling design.
type ErrorKind string

const (
	Malformed          ErrorKind = "malformed_address"
	InvalidType        ErrorKind = "invalid_type"
	NameIsAddress      ErrorKind = "name_is_address"
	AlreadyExists      ErrorKind = "already_exists"
	TypeMismatch       ErrorKind = "type_mismatch"
	CreateNotSet       ErrorKind = "create_not_set"
	TypeMissing        ErrorKind = "type_missing"
	NotFoundLocally    ErrorKind = "not_found_locally"
	InvariantViolation ErrorKind = "invariant_violation"
)

// Error is the error type returned for every ErrorKind above. It wraps an
// optional underlying cause so object-store, cache, pubsub, and
// access-controller errors keep surfacing unchanged through %w.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// NewError builds an *Error with no underlying cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError builds an *Error wrapping cause.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, Sentinel(kind)) work by comparing kinds, ignoring
// Message and Cause on the target.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel returns a comparison value for errors.Is(err, Sentinel(Kind)).
func Sentinel(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}
