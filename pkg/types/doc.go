// Package types defines the Instance attribute map, the storage Provider
// contract, backend configuration, and the standard error values shared by
// every Tapestry package.
// See docs/ARCHITECTURE.md § Provider Contract.
package types
