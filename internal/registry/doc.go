// Package registry holds the catalogue of step specifications.
//
// A Registry is populated during a single-threaded setup phase and then
// frozen. After Freeze, Lookup and AllRegisteredTypes take no locks and are
// safe for any number of concurrent readers; Register fails with
// ErrRegistryFrozen.
package registry
