// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-ping/ping"
	"github.com/rs/zerolog"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// Pinger checks IP addresses for ICMP echo replies. Its verdict is merely a
// side-signal to the DNS-based verdicts for IP subjects, so a Pinger never
// reports errors, only “replied” or “didn't reply”.
type Pinger struct {
	count               int           // number of pings to send.
	interval            time.Duration // distance between pings.
	thresholdPercentage uint          // percentage of successful pings for a reachable address.
	unprivileged        bool          // if true, uses UDP-based pings instead of privileged ICMPs.

	netns relations.Relation // network namespace to ping from, or nil.
	log   zerolog.Logger
}

// PingerOption can be passed to New when creating new Pinger objects.
type PingerOption func(*Pinger)

// New returns a new [Pinger].
//
// The new pinger defaults to pinging 3 times at intervals of 1s between each
// ping. The reachability threshold defaults to 50(%).
//
// The pinger can be configured during creation using several option:
//   - [WithCount]
//   - [WithInterval]
//   - [WithThresholdPercentage]
//   - [AsUnprivileged]
//   - [InNetworkNamespace]
func New(options ...PingerOption) *Pinger {
	pinger := &Pinger{
		count:               3,
		interval:            time.Second,
		thresholdPercentage: 50,
		log:                 zerolog.Nop(),
	}
	for _, opt := range options {
		opt(pinger)
	}
	return pinger
}

// InNetworkNamespace optionally runs a [Pinger] inside the network namespace
// referenced by the specified filesystem path. An empty path keeps the
// current network namespace.
func InNetworkNamespace(netnsref string) PingerOption {
	return func(p *Pinger) {
		if netnsref == "" {
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithCount sets the number of pings for testing reachability of an IP address.
func WithCount(count uint) PingerOption {
	return func(p *Pinger) {
		p.count = int(count)
	}
}

// WithInterval sets the interval between consecutive pings.
func WithInterval(interval time.Duration) PingerOption {
	return func(p *Pinger) {
		p.interval = interval
	}
}

// AsUnprivileged tells the Pinger to carry out unprivileged pings using UDP
// instead of ICMP packet.
func AsUnprivileged() PingerOption {
	return func(p *Pinger) {
		p.unprivileged = true
	}
}

// WithLogger sets the logger for diagnostic output.
func WithLogger(log zerolog.Logger) PingerOption {
	return func(p *Pinger) {
		p.log = log
	}
}

// WithThresholdPercentage takes a percentage between 0 and 100 that specifies
// the percentage of successful ping responses required in order to consider
// the pinged IP address reachable.
func WithThresholdPercentage(threshold uint) PingerOption {
	if threshold > 100 {
		panic(fmt.Errorf("Pinger: threshold must be a percentage between 0 <= threshold <= 100, got: %d",
			threshold))
	}
	return func(p *Pinger) {
		p.thresholdPercentage = threshold
	}
}

// Reachable pings the specified IP address and returns true if enough echo
// replies came back.
//
// The ping is automatically aborted when the specified context either meets
// its deadline or gets cancelled; the address is then considered to be
// unreachable.
func (p *Pinger) Reachable(ctx context.Context, addr string) bool {
	ping := func() interface{} {
		// A quick and non-blocking check to see if the context has been
		// cancelled before we start our work...
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pinger, err := ping.NewPinger(addr)
		if err != nil {
			return err
		}
		pinger.SetPrivileged(!p.unprivileged)
		pinger.Count = p.count
		pinger.Interval = p.interval
		// Always limit waiting for the last ping to get reflected (or not)!
		pinger.Timeout = time.Duration(int64(p.interval) * int64(p.count+2))
		// While the ping will be running, we need to monitor the context in
		// case it becomes "done" by either getting cancelled or reaching
		// its deadline.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				pinger.Stop()
			case <-done:
			}
		}()
		if err = pinger.Run(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		stats := pinger.Statistics()
		if stats.PacketsRecv < pinger.Count*int(p.thresholdPercentage)/100 ||
			stats.PacketsRecv == 0 {
			return errors.New("no replies or too many losses")
		}
		return nil
	}
	// Run the ping in the requested network namespace, if necessary.
	var err error
	if p.netns != nil {
		var pingerr interface{}
		pingerr, err = ops.Execute(ping, p.netns)
		if err == nil && pingerr != nil {
			if fnerr, ok := pingerr.(error); ok {
				err = fnerr
			}
		}
	} else if res := ping(); res != nil {
		err = res.(error)
	}
	if err != nil {
		p.log.Debug().Str("addr", addr).Err(err).Msg("ping unanswered")
		return false
	}
	return true
}
