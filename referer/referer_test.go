// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package referer

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siemens/reachdig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

type fakeWhois struct {
	records map[string]string
	queries atomic.Int32
	delay   time.Duration
}

func (w *fakeWhois) Query(ctx context.Context, server, query string) string {
	w.queries.Add(1)
	time.Sleep(w.delay)
	if server != IANAServer {
		return ""
	}
	return w.records[query]
}

type fakeDNS map[string][]string

func (d fakeDNS) LookupHost(ctx context.Context, host string) []string {
	return d[host]
}

func server(t *Table, suffix string) string {
	s, _ := t.Lookup(suffix)
	return s
}

func domain(name string) types.Subject {
	return types.Subject{Name: name, Kind: types.Domain}
}

var _ = Describe("referer resolution", func() {

	var whois *fakeWhois
	var dns fakeDNS

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(2 * time.Second).WithPolling(100 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
		whois = &fakeWhois{records: map[string]string{
			"example": "% IANA WHOIS server\n\ndomain:       EXAMPLE\nrefer:        whois.nic.example\n",
			"nowhere": "% IANA WHOIS server\n\ndomain:       NOWHERE\n",
			"lost":    "refer: whois.nic.lost\n",
		}}
		dns = fakeDNS{
			"whois.nic.example": {"192.0.2.1", "192.0.2.2"},
		}
	})

	It("returns the suffix", func() {
		Expect(Suffix("www.example.com")).To(Equal("com"))
		Expect(Suffix("example.com.")).To(Equal("com"))
		Expect(Suffix("localhost")).To(Equal("localhost"))
	})

	It("skips local subjects and IP addresses", func(ctx context.Context) {
		r := New(whois, dns)
		Expect(Successful(r.Resolve(ctx, types.Subject{Name: "printer", Local: true}))).To(BeEmpty())
		Expect(Successful(r.Resolve(ctx, types.Subject{Name: "192.0.2.1", Kind: types.IP}))).To(BeEmpty())
		Expect(whois.queries.Load()).To(BeZero())
	})

	It("returns single servers from the table", func(ctx context.Context) {
		r := New(whois, dns)
		Expect(r.Resolve(ctx, domain("example.com"))).To(Equal("whois.verisign-grs.com"))
		Expect(r.Resolve(ctx, types.Subject{
			Name: "https://example.org/foo", Host: "example.org", Kind: types.URL,
		})).To(Equal("whois.publicinterestregistry.org"))
		Expect(whois.queries.Load()).To(BeZero())
	})

	It("rejects suffixes without registry", func(ctx context.Context) {
		r := New(whois, dns)
		Expect(r.Resolve(ctx, domain("example.yu"))).Error().To(MatchError(ErrNoCentralRegistry))
	})

	It("rejects unknown suffixes", func(ctx context.Context) {
		r := New(whois, dns)
		Expect(r.Resolve(ctx, domain("example.notarealsuffix"))).Error().To(MatchError(ErrUnknownSuffix))
		Expect(whois.queries.Load()).To(BeZero())
	})

	It("asks IANA and picks a resolved referer", func(ctx context.Context) {
		r := New(whois, dns, WithTable(&Table{
			Servers:    map[string]string{"example": ""},
			noRegistry: map[string]struct{}{},
		}), WithRandSource(rand.NewSource(42)))
		addr := Successful(r.Resolve(ctx, domain("foo.example")))
		Expect(addr).To(BeElementOf("192.0.2.1", "192.0.2.2"))
		// cached
		Expect(r.Resolve(ctx, domain("bar.example"))).To(BeElementOf("192.0.2.1", "192.0.2.2"))
		Expect(whois.queries.Load()).To(Equal(int32(1)))
	})

	It("falls back to other oracles when there is no referer", func(ctx context.Context) {
		r := New(whois, dns, WithTable(&Table{
			Servers:    map[string]string{"nowhere": "", "lost": ""},
			noRegistry: map[string]struct{}{},
		}))
		Expect(Successful(r.Resolve(ctx, domain("foo.nowhere")))).To(BeEmpty())
		Expect(Successful(r.Resolve(ctx, domain("foo.lost")))).To(BeEmpty())
	})

	It("coalesces concurrent IANA lookups", func(ctx context.Context) {
		whois.delay = 200 * time.Millisecond
		r := New(whois, dns, WithTable(&Table{
			Servers:    map[string]string{"example": ""},
			noRegistry: map[string]struct{}{},
		}))
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				Expect(r.Resolve(ctx, domain("foo.example"))).NotTo(BeEmpty())
			}()
		}
		wg.Wait()
		Expect(whois.queries.Load()).To(Equal(int32(1)))
	})

	Context("suffix tables", func() {

		It("has a valid built-in table", func() {
			t := DefaultTable()
			Expect(server(t, "de")).To(Equal("whois.denic.de"))
			Expect(server(t, "no")).To(Equal("whois.norid.no"))
			Expect(t.HasNoRegistry("tp")).To(BeTrue())
			Expect(t.HasNoRegistry("com")).To(BeFalse())
		})

		It("merges a table file on top of the built-in table", func() {
			path := filepath.Join(GinkgoT().TempDir(), "suffixes.json")
			Expect(os.WriteFile(path, []byte(
				`{"servers": {".COM": "whois.example.net", "zz": ""}, "no_registry": ["xx"]}`),
				0o644)).To(Succeed())
			t := Successful(LoadTable(path))
			Expect(server(t, "com")).To(Equal("whois.example.net"))
			Expect(server(t, "de")).To(Equal("whois.denic.de"))
			zz, ok := t.Lookup("zz")
			Expect(ok).To(BeTrue())
			Expect(zz).To(BeEmpty())
			Expect(t.HasNoRegistry("xx")).To(BeTrue())
		})

		It("reports broken table files", func() {
			path := filepath.Join(GinkgoT().TempDir(), "suffixes.yaml")
			Expect(os.WriteFile(path, []byte("servers: [oops"), 0o644)).To(Succeed())
			Expect(LoadTable(path)).Error().To(HaveOccurred())
			Expect(LoadTable(path + ".missing")).Error().To(HaveOccurred())
		})

	})

})
