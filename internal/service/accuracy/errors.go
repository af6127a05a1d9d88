package accuracy

import "errors"

// Sentinel errors for the accuracy service layer.
var (
	ErrStatsNotFound = errors.New("accuracy stats not found")
)
