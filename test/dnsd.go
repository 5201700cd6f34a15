// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

import (
	"net"
	"strings"
	"sync/atomic"

	"github.com/miekg/dns"

	gi "github.com/onsi/ginkgo/v2"
	g "github.com/onsi/gomega"
	s "github.com/thediveo/success"
)

// DNSServer is an in-process DNS server answering from a fixed zone. It
// listens on a random UDP port on the loopback interface.
type DNSServer struct {
	Addr    string // "127.0.0.1:port"
	srv     *dns.Server
	zone    map[string][]dns.RR // lower-case FQDN -> records
	queries atomic.Int64
}

// NewDNSServer starts a DNS server answering with the records given in zone
// file notation, such as "example.org. 60 IN A 192.0.2.1". Names without any
// record get NXDOMAIN answers; names with records, but not of the requested
// type, get empty NOERROR answers.
func NewDNSServer(records ...string) *DNSServer {
	gi.GinkgoHelper()

	d := &DNSServer{zone: map[string][]dns.RR{}}
	for _, record := range records {
		rr := s.Successful(dns.NewRR(record))
		name := strings.ToLower(rr.Header().Name)
		d.zone[name] = append(d.zone[name], rr)
	}
	pc := s.Successful(net.ListenPacket("udp", "127.0.0.1:0"))
	d.Addr = pc.LocalAddr().String()
	started := make(chan struct{})
	d.srv = &dns.Server{
		PacketConn:        pc,
		Handler:           dns.HandlerFunc(d.serve),
		NotifyStartedFunc: func() { close(started) },
	}
	go func() {
		_ = d.srv.ActivateAndServe()
	}()
	g.Eventually(started).Should(g.BeClosed())
	return d
}

// Queries returns the number of queries received so far.
func (d *DNSServer) Queries() int64 {
	return d.queries.Load()
}

// Close shuts down the DNS server.
func (d *DNSServer) Close() {
	_ = d.srv.Shutdown()
}

func (d *DNSServer) serve(w dns.ResponseWriter, req *dns.Msg) {
	d.queries.Add(1)
	resp := new(dns.Msg)
	resp.SetReply(req)
	if len(req.Question) == 1 {
		q := req.Question[0]
		rrs, ok := d.zone[strings.ToLower(q.Name)]
		if !ok {
			resp.Rcode = dns.RcodeNameError
		}
		for _, rr := range rrs {
			if rr.Header().Rrtype == q.Qtype {
				resp.Answer = append(resp.Answer, rr)
			}
		}
	}
	_ = w.WriteMsg(resp)
}
