// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

import (
	"bufio"
	"net"
	"strings"
	"sync"

	gi "github.com/onsi/ginkgo/v2"
	s "github.com/thediveo/success"
)

// WhoisServer is an in-process WHOIS server on a random TCP port of the
// loopback interface. It answers queries from a fixed set of records and
// closes the connection afterwards, as real WHOIS servers do.
type WhoisServer struct {
	Addr     string // "127.0.0.1:port"
	ln       net.Listener
	mu       sync.Mutex
	records  map[string]string
	silent   bool
	received []string
	wg       sync.WaitGroup
}

// NewWhoisServer starts a WHOIS server answering with the specified records,
// keyed by query. Queries without a record get a "No match" answer.
func NewWhoisServer(records map[string]string) *WhoisServer {
	gi.GinkgoHelper()

	w := &WhoisServer{
		ln:      s.Successful(net.Listen("tcp", "127.0.0.1:0")),
		records: records,
	}
	w.Addr = w.ln.Addr().String()
	w.wg.Add(1)
	go w.serve()
	return w
}

// Silence makes the server hang up on queries without answering.
func (w *WhoisServer) Silence() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.silent = true
}

// Received returns the queries received so far.
func (w *WhoisServer) Received() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.received...)
}

// Close stops the server and waits for its goroutines to wind down.
func (w *WhoisServer) Close() {
	_ = w.ln.Close()
	w.wg.Wait()
}

func (w *WhoisServer) serve() {
	defer w.wg.Done()
	for {
		conn, err := w.ln.Accept()
		if err != nil {
			return
		}
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer conn.Close()
			line, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				return
			}
			query := strings.TrimRight(line, "\r\n")
			w.mu.Lock()
			w.received = append(w.received, query)
			silent := w.silent
			record, ok := w.records[query]
			w.mu.Unlock()
			if silent {
				return
			}
			if !ok {
				record = "No match for \"" + strings.ToUpper(query) + "\".\r\n"
			}
			_, _ = conn.Write([]byte(record))
		}()
	}
}
