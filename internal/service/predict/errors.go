package predict

import "errors"

// Sentinel errors for the predict service layer.
var (
	ErrBrandNotFound = errors.New("brand not found")
)
