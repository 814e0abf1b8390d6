package schema

import "errors"

// ErrInvalidLimits occurs when a [Limits] cannot describe a working table.
var ErrInvalidLimits = errors.New("invalid table limits")
