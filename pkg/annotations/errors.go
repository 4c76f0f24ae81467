package annotations

import "github.com/toyz/docnote/internal/errors"

// ErrTargetNotFound is matched, through errors.Is, by the error a comment
// source returns for a type, field or method that does not exist
var ErrTargetNotFound = errors.ErrTargetNotFound

// TargetNotFoundError describes a failed comment lookup
type TargetNotFoundError = errors.TargetNotFoundError

// RegistrationError describes an invalid rule registration
type RegistrationError = errors.RegistrationError
