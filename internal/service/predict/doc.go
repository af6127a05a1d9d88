// Package predict projects last year's sale windows into predictions for a
// target year. Holiday-anchored windows shift with the holiday's date;
// unanchored windows keep their month and day. Confidence scoring is
// pluggable; predictions below the configured minimum are not emitted.
package predict
