// Package persistence is the write-behind layer between the in-memory novel
// graph and a storage backend.
//
// Mutations are recorded as operations in an in-memory log. A flush drains
// the log, coalesces repeated updates of the same entity into one backend
// write, and forwards the result in enqueue order. At most one flush runs at
// a time; FlushOrFail is the shutdown path that waits for the log to reach
// storage or fails loudly.
package persistence
