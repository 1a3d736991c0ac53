// Package queue provides the durable dispatch channel between the trigger
// surface and the background consumer, backed by SQLite.
//
// A job names the user and session to process and nothing else. Jobs are
// claimed oldest first, leased while processing, and redelivered when a lease
// expires, so delivery is at least once. Retryable failures return to pending
// with exponential backoff until the attempt budget runs out; everything else
// lands in failed, where an operator can retry it.
package queue
