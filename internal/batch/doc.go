// Package batch implements the concurrent item processing engine.
//
// A batch fans one task per item id out to a bounded worker Pool. Each task
// runs the Processor and records its Outcome in the batch's Aggregator. The
// Coordinator waits on a barrier that releases only once every dispatched task
// has recorded an Outcome (or the batch deadline has passed, in which case the
// missing ids are recorded as timed out), and only then hands the Result back.
//
// Per-item failures are data: they are carried as failed or skipped Outcomes
// inside the Result. Only infrastructure failures (listing ids, a closed pool)
// abort a batch with an error.
package batch
