/*
Package whoisoracle implements reachdig's WHOIS oracle: a plain TCP client
talking the WHOIS protocol (RFC 3912) on port 43.

A query is the subject followed by CRLF; the answer is everything the server
sends until it closes the connection. Records which are not valid UTF-8 are
re-decoded as ISO-8859-1.

Absence of an answer is not an error but evidence, so [Client.Query] simply
returns an empty record in that case.
*/
package whoisoracle
