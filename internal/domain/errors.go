// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrValidation indicates a caller supplied an out-of-range or malformed parameter.
// Wrap it with fmt.Errorf("%w: detail", ErrValidation) so handlers can report the detail.
var ErrValidation = errors.New("validation error")

// ErrUnavailable indicates the upstream billing API cannot currently be reached.
var ErrUnavailable = errors.New("billing api unavailable")
