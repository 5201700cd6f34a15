/*
Package checkpoint implements the wall-clock gate that forces periodic
persistence of a batch run and, in CI mode, its bounded termination.

A [Scheduler] signals a due checkpoint once the configured time budget since
the start of the run has elapsed, or when a checkpoint has been forced, such
as by the final pass. On a checkpoint, the Scheduler first runs all
registered persisters, then the optional pre-exit hook. In CI mode it
afterwards runs the external commit command and then asks for termination by
returning [ErrCheckpointExit]; it is then up to the caller to exit with code
0, so that a later CI run can continue where this one stopped.

Hooks are run using “sh -c”, with the commit message passed in the
REACHDIG_COMMIT_MESSAGE environment variable.
*/
package checkpoint
