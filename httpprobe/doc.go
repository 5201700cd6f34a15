/*
Package httpprobe implements reachdig's HTTP oracle: HEAD requests reporting
only the status code of the answer. Redirects are not followed by the primary
probe, so a 301 is reported as such.

A secondary probe, [Prober.Redirects], follows redirect chains in order to
mine further host names worth testing.
*/
package httpprobe
