package schema

import "errors"

var (
	// ErrInvalidSchema indicates a malformed schema document.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrDuplicateSetting indicates a name declared more than once.
	ErrDuplicateSetting = errors.New("duplicate setting")

	// ErrInvalidLegacyDecl indicates a legacy entry of the wrong shape.
	ErrInvalidLegacyDecl = errors.New("invalid legacy declaration")
)
