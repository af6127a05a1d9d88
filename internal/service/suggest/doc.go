// Package suggest turns outcome history into adjustment suggestions for
// operators. Generation is evidence-keyed: a suggestion is identified by a
// hash of its supporting evidence, so re-runs over unchanged history never
// emit duplicates.
package suggest
