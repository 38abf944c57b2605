// Package recalc runs deferred recomputation of derived match statistics.
//
// Mutating requests submit a job and return; a single-threaded Worker polls
// the Queue, claims one due job at a time and dispatches it to the handler
// registered for its kind. A failing job is retried with exponential
// backoff until its retry budget is spent, then marked failed with the
// last error kept on the job.
//
// Jobs are durable: a job submitted before a crash is picked up after
// restart. A job left running by a crashed worker stays running; the jobs
// command lists it for manual requeue.
package recalc
