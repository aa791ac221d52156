// Package types defines the novel aggregate, the persistence Backend and Loader
// interfaces, domain events, configuration, and the standard errors shared by
// every plotbook package.
//
// Entities reference each other by uuid.UUID rather than by pointer. Clone on
// any entity therefore yields a value that shares no memory with the original,
// which is what the write-behind layer hands to its background worker.
package types
