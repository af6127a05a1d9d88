// Package postgres implements the service repository interfaces against
// PostgreSQL. Batch writes that must be atomic per brand run inside a
// single transaction.
package postgres
