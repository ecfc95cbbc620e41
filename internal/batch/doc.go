// Package batch runs a fixed number of independent tasks over a pool
// of workers, advancing a shared progress tracker as tasks finish.
//
// Failures stay contained: a panicking task becomes an error, errors
// are collected rather than aborting the batch, and a run of
// consecutive failures trips a circuit breaker that cancels whatever
// work remains.
package batch
