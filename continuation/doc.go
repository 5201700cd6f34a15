/*
Package continuation persists per-source-file progress counters, so that
interrupted runs over long subject lists can later resume where they left
off.

The batch coordinator advances the counters strictly in list order, even when
workers complete out of order, so the number of tested subjects always is
also the position to resume from.

When a stored pass covers the complete list and the last subject of that pass
still is the last line of the list, the list is assumed to have been
regenerated, and the counters get reset in order to start over.
*/
package continuation
