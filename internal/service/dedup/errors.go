package dedup

import "errors"

// Sentinel errors for the dedup service layer.
var (
	ErrBrandNotFound = errors.New("brand not found")
)
