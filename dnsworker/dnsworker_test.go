// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/miekg/dns"

	"github.com/siemens/reachdig/test"
	"github.com/siemens/reachdig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/namspill"
	. "github.com/thediveo/success"
)

var _ = Describe("DNS oracle", func() {

	var dnssrv *test.DNSServer

	BeforeEach(func() {
		goodgos := Goroutines()
		dnssrv = test.NewDNSServer(
			"example.org. 60 IN NS ns1.example.org.",
			"www.example.org. 60 IN A 192.0.2.1",
			"www.example.org. 60 IN AAAA 2001:db8::1",
			"alias.example.org. 60 IN CNAME www.example.org.",
			"1.2.0.192.in-addr.arpa. 60 IN PTR www.example.org.",
		)
		DeferCleanup(func() {
			dnssrv.Close()
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
			Expect(Tasks()).To(BeUniformlyNamespaced())
		})
	})

	It("looks up records", func(ctx context.Context) {
		r := Successful(New(WithServers(dnssrv.Addr)))
		Expect(r.Lookup(ctx, "www.example.org", dns.TypeA)).To(ConsistOf("192.0.2.1"))
		Expect(r.LookupHost(ctx, "www.example.org")).To(ConsistOf("192.0.2.1", "2001:db8::1"))
		Expect(r.Lookup(ctx, "example.org", dns.TypeNS)).To(ConsistOf("ns1.example.org."))
		Expect(r.Lookup(ctx, "example.org", dns.TypeMX)).To(BeEmpty())
		Expect(r.Lookup(ctx, "nowhere.example.org", dns.TypeA)).To(BeNil())
	})

	DescribeTable("checks subject existence",
		func(ctx context.Context, subject types.Subject, exists bool) {
			r := Successful(New(WithServers(dnssrv.Addr)))
			Expect(r.Exists(ctx, subject)).To(Equal(exists))
		},
		Entry("by NS", types.Subject{Name: "example.org"}, true),
		Entry("by A", types.Subject{Name: "www.example.org"}, true),
		Entry("by CNAME", types.Subject{Name: "alias.example.org"}, true),
		Entry("by PTR", types.Subject{Name: "192.0.2.1", Kind: types.IP}, true),
		Entry("URL host", types.Subject{Name: "https://www.example.org/", Kind: types.URL, Host: "www.example.org"}, true),
		Entry("missing domain", types.Subject{Name: "gone.example.org"}, false),
		Entry("missing PTR", types.Subject{Name: "192.0.2.2", Kind: types.IP}, false),
	)

	It("falls back to further servers and gives up quietly", func(ctx context.Context) {
		dead := Successful(New(
			WithServers("127.0.0.1:1", dnssrv.Addr),
			WithTimeout(250*time.Millisecond)))
		Expect(dead.Lookup(ctx, "www.example.org", dns.TypeA)).To(ConsistOf("192.0.2.1"))

		deader := Successful(New(
			WithServers("127.0.0.1:1"),
			WithProtocol("tcp"),
			WithTimeout(250*time.Millisecond),
			WithLifetime(time.Second)))
		Expect(deader.Exists(ctx, types.Subject{Name: "www.example.org"})).To(BeFalse())
	})

	It("adds the default port", func() {
		r := Successful(New(WithServers("192.0.2.53", "[2001:db8::53]:5353")))
		Expect(r.Servers()).To(ConsistOf("192.0.2.53:53", "[2001:db8::53]:5353"))
	})

	It("resolves from inside a network namespace", func(ctx context.Context) {
		if os.Getuid() != 0 {
			Skip("needs root")
		}
		r := Successful(New(
			WithServers(dnssrv.Addr),
			InNetworkNamespace(filepath.Join("/proc", "self", "ns", "net"))))
		Expect(r.Exists(ctx, types.Subject{Name: "www.example.org"})).To(BeTrue())
	})

})
