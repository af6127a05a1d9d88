package verify

import "errors"

// Sentinel errors for the verify service layer.
var (
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrInvalidResult      = errors.New("invalid override result")
)
