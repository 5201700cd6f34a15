/*
Package batch drives the status resolution of subject lists over a bounded
pool of workers and merges the results into the durable datasets.

An [Orchestrator] first builds a pre-filtered “shadow” list of a source file,
skipping subjects already tested in an interrupted earlier run, subjects
waiting for their retest, subjects matching ignore patterns and, optionally,
reserved IP addresses. It then dispatches the remaining subjects to its
workers, never having more subjects in flight than there are workers. Each
worker owns its own status resolver, created from its own copy of the
configuration, and returns self-contained results.

Only the coordinating Orchestrator updates the continuation counters, the
retest cache, the whois dataset and the per-status output files. Results are
either merged as soon as they arrive (live) or after the pool drained
(batch). After the primary pass, further passes test the subjects due for
retest, complements of tested subjects and finally mined subjects.

A panicking worker is fatal for the whole batch: the Orchestrator stops
dispatching, cancels all siblings, flushes the results merged so far, and
returns a [WorkerFault].
*/
package batch
