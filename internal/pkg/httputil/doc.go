// Package httputil provides shared HTTP response/request utilities for
// handlers, so every endpoint emits the same JSON envelope and error
// structure.
package httputil
