/*
Package syntax provides the grammar predicates for domains, IP addresses and
URLs, as well as normalization of raw source list lines into subjects.
*/
package syntax
