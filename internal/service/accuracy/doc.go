// Package accuracy maintains per-brand prediction track records. Stats
// are fully recomputed from outcome history on every run; the stored row
// is a cache, never a source of truth.
package accuracy
