package netrate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mackerelio/go-osstat/network"

	"github.com/fudanchii/humanbw"
)

// Counters holds cumulative byte counters for one interface.
type Counters struct {
	RxBytes uint64
	TxBytes uint64
}

// Rate is the receive and transmit bandwidth observed over the last
// sampling interval.
type Rate struct {
	Rx humanbw.Bandwidth
	Tx humanbw.Bandwidth
}

// Sampler polls the kernel interface counters and keeps per-interface
// bandwidth for the most recent interval plus running totals since the
// sampler was created.
type Sampler struct {
	mu       sync.Mutex
	getStats func() ([]network.Stats, error)
	now      func() time.Time

	only   string
	prev   map[string]Counters
	rates  map[string]Rate
	total  Counters
	lastAt time.Time
}

// NewSampler returns a sampler primed with the current counters. When
// iface is not empty only that interface is tracked; the loopback
// interface is always skipped.
func NewSampler(iface string) (*Sampler, error) {
	s := &Sampler{
		getStats: network.Get,
		now:      time.Now,
		only:     iface,
	}
	if err := s.prime(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sampler) prime() error {
	stats, err := s.getStats()
	if err != nil {
		return err
	}
	s.prev = s.snapshot(stats)
	s.rates = map[string]Rate{}
	s.lastAt = s.now()
	return nil
}

func (s *Sampler) snapshot(stats []network.Stats) map[string]Counters {
	counters := make(map[string]Counters, len(stats))
	for _, st := range stats {
		if st.Name == "lo" {
			continue
		}
		if s.only != "" && st.Name != s.only {
			continue
		}
		counters[st.Name] = Counters{RxBytes: st.RxBytes, TxBytes: st.TxBytes}
	}
	return counters
}

// Update takes a new counter snapshot and recomputes the rates from
// the deltas against the previous one. Interfaces that appeared since
// the last snapshot contribute no rate until the next call.
func (s *Sampler) Update() error {
	stats, err := s.getStats()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	elapsed := at.Sub(s.lastAt)
	current := s.snapshot(stats)

	rates := make(map[string]Rate, len(current))
	for name, c := range current {
		p, seen := s.prev[name]
		if !seen {
			continue
		}
		// counters reset when an interface bounces
		if c.RxBytes < p.RxBytes || c.TxBytes < p.TxBytes {
			continue
		}
		rx := c.RxBytes - p.RxBytes
		tx := c.TxBytes - p.TxBytes
		rates[name] = Rate{
			Rx: bandwidthOf(rx, elapsed),
			Tx: bandwidthOf(tx, elapsed),
		}
		s.total.RxBytes += rx
		s.total.TxBytes += tx
	}

	s.prev = current
	s.rates = rates
	s.lastAt = at
	return nil
}

// bandwidthOf converts a byte delta over an interval to bits per second.
func bandwidthOf(deltaBytes uint64, elapsed time.Duration) humanbw.Bandwidth {
	if elapsed <= 0 {
		return humanbw.Bandwidth{}
	}
	bits := deltaBytes * 8
	if bits <= math.MaxUint64/uint64(time.Second) {
		return humanbw.FromBps(bits * uint64(time.Second) / uint64(elapsed))
	}
	secs := uint64(elapsed / time.Second)
	if secs == 0 {
		secs = 1
	}
	return humanbw.FromBps(bits / secs)
}

// Rates returns a copy of the per-interface rates from the last Update.
func (s *Sampler) Rates() map[string]Rate {
	s.mu.Lock()
	defer s.mu.Unlock()

	rates := make(map[string]Rate, len(s.rates))
	for name, r := range s.rates {
		rates[name] = r
	}
	return rates
}

// Rate returns the last rate of a single interface.
func (s *Sampler) Rate(iface string) (Rate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rates[iface]
	return r, ok
}

// Totals returns the bytes moved since the sampler was created.
func (s *Sampler) Totals() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.total
}

// String renders one status line, interfaces sorted by name:
//
//	eth0 rx:12.5MiB/s tx:1.37MiB/s | wlan0 rx:0B/s tx:0B/s
func (s *Sampler) String() string {
	rates := s.Rates()

	names := make([]string, 0, len(rates))
	for name := range rates {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		r := rates[name]
		parts = append(parts, fmt.Sprintf("%s rx:%s tx:%s",
			name,
			humanbw.FormatBinaryBandwidth(r.Rx),
			humanbw.FormatBinaryBandwidth(r.Tx)))
	}
	return strings.Join(parts, " | ")
}
