// Package humanbw parses and formats human-readable bandwidth
// expressions, in both the binary prefix system (KiB/s, MiB/s, ...)
// and the SI system (kbps, Mbps, ...).
//
// All arithmetic is exact integer arithmetic; no floating point is
// involved anywhere. Parsing rounds fractional parts half away from
// zero at the smallest representable granularity, formatting rounds
// half to even, so format(parse(s)) is not guaranteed to return s.
package humanbw

import "math/bits"

// BpsPerGbps is the number of bits per second in one gigabit per second.
const BpsPerGbps = 1_000_000_000

// Bandwidth is a nonnegative rate in bits per second, held exactly as a
// whole gigabit-per-second count plus a sub-gigabit remainder.
type Bandwidth struct {
	gbps uint64
	bps  uint32 // invariant: bps < BpsPerGbps
}

// New returns a Bandwidth of gbps gigabits per second plus bps bits per
// second. A bps value of one gigabit or more is carried into gbps.
func New(gbps uint64, bps uint32) Bandwidth {
	return Bandwidth{
		gbps: gbps + uint64(bps)/BpsPerGbps,
		bps:  bps % BpsPerGbps,
	}
}

// FromBps returns a Bandwidth of bps bits per second.
func FromBps(bps uint64) Bandwidth {
	return Bandwidth{gbps: bps / BpsPerGbps, bps: uint32(bps % BpsPerGbps)}
}

// FromGbps returns a Bandwidth of gbps whole gigabits per second.
func FromGbps(gbps uint64) Bandwidth {
	return Bandwidth{gbps: gbps}
}

// Gbps returns the whole gigabit-per-second count.
func (b Bandwidth) Gbps() uint64 { return b.gbps }

// SubGbpsBps returns the sub-gigabit remainder in bits per second.
func (b Bandwidth) SubGbpsBps() uint32 { return b.bps }

func (b Bandwidth) IsZero() bool { return b.gbps == 0 && b.bps == 0 }

// TotalBps returns the rate in bits per second and reports whether it
// fits in a uint64.
func (b Bandwidth) TotalBps() (uint64, bool) {
	hi, lo := bits.Mul64(b.gbps, BpsPerGbps)
	if hi != 0 {
		return 0, false
	}
	total, carry := bits.Add64(lo, uint64(b.bps), 0)
	return total, carry == 0
}

// Cmp returns -1, 0 or 1 comparing b against other.
func (b Bandwidth) Cmp(other Bandwidth) int {
	switch {
	case b.gbps < other.gbps:
		return -1
	case b.gbps > other.gbps:
		return 1
	case b.bps < other.bps:
		return -1
	case b.bps > other.bps:
		return 1
	}
	return 0
}

// checkedAdd sums two bandwidths, failing instead of wrapping when the
// gigabit count would exceed uint64.
func (b Bandwidth) checkedAdd(other Bandwidth) (Bandwidth, bool) {
	bps := b.bps + other.bps
	carry := uint64(bps / BpsPerGbps)
	bps %= BpsPerGbps

	gbps, overflow := bits.Add64(b.gbps, other.gbps, 0)
	if overflow != 0 {
		return Bandwidth{}, false
	}
	gbps, overflow = bits.Add64(gbps, carry, 0)
	if overflow != 0 {
		return Bandwidth{}, false
	}
	return Bandwidth{gbps: gbps, bps: bps}, true
}

// String renders b in the binary prefix system, single-unit decimal form.
func (b Bandwidth) String() string {
	return FormatBinaryBandwidth(b).String()
}

// MarshalText renders b the same way String does. Together with
// UnmarshalText this makes Bandwidth usable in flag values, JSON and
// the like. The round trip is exact only down to one byte per second:
// formatting first rounds the rate to whole bytes.
func (b Bandwidth) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText parses a binary prefix bandwidth expression.
func (b *Bandwidth) UnmarshalText(text []byte) error {
	parsed, err := ParseBinaryBandwidth(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
