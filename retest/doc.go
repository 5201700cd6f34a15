/*
Package retest remembers the subjects of a source file that didn't test UP,
so that later runs skip them until they are due for a retest.

A [Cache] is a private, in-memory view of the inactive rows of a single
source file. Only the batch coordinator records results into a Cache and
flushes the accumulated changes into the durable inactive dataset, so
workers never touch durable storage.

Subjects testing UP get removed. All other subjects are added on their first
non-up result and refreshed on each retest; regardless of their status, they
are purged once they are older than the retention period.
*/
package retest
