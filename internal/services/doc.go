// Package services provides the shared error taxonomy and context plumbing
// used by adapter clients and the processing pipeline.
package services
