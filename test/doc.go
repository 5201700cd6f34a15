/*
Package test provides in-process fake network peers for reachdig's package
tests: a DNS server answering from a fixed zone and a WHOIS server answering
from fixed records. Both listen on random loopback ports.
*/
package test
