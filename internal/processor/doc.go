// Package processor runs the background evaluation pipeline for a session:
// transcribe every answered question in order, score the complete set in one
// engine call, merge the verdicts into the interview log, persist the log and
// feedback documents, finalize the session, and send a best-effort
// notification.
package processor
