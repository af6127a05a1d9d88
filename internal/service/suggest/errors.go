package suggest

import "errors"

// Sentinel errors for the suggest service layer.
var (
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrAlreadyResolved    = errors.New("suggestion already resolved")
)
