/*
Package store persists the rows of the inactive and whois datasets.

Inactive rows remember subjects that didn't test UP, scoped per source file,
so that they can be skipped until due for a retest. Whois rows remember the
expiration dates of registered subjects, so that later runs can skip WHOIS
queries for subjects not yet expired.

Two backends are supported: a flat JSON file per dataset, kept in memory and
written atomically on [Stores.Flush], and a SQLite database where every
mutation is immediately durable.
*/
package store
