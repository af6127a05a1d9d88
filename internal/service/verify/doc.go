// Package verify checks elapsed predictions against fresh sale
// observations and records hit/miss outcomes. It also hosts the manual
// override entry point, the only external mutation path into outcomes.
package verify
