// Package dedup groups raw sale observations into canonical sale windows.
//
// Grouping is a single left-to-right greedy pass over observations sorted by
// start date: each observation joins the earliest-created compatible window
// or opens a new one. Compatibility requires date proximity and a matching
// discount. Windows are tagged with a holiday anchor when their start falls
// close to a calendar holiday.
package dedup
