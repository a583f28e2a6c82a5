package humanbw

import (
	"fmt"
	"io"
	"strings"
)

var binaryUnits = [5]string{"B/s", "KiB/s", "MiB/s", "GiB/s", "TiB/s"}

// binaryUnitLevel resolves a unit alias to its power of 1024. The alias
// table is closed; the Ki/Mi/Gi/Ti prefix letter is accepted in either
// case, the rest of the alias is case sensitive.
func binaryUnitLevel(unit string) (uint, bool) {
	switch unit {
	case "Bps", "Byte/s", "B/s", "ops", "o/s":
		return 0, true
	case "KiBps", "kiBps", "KiByte/s", "kiByte/s", "KiB/s", "kiB/s",
		"Kiops", "kiops", "Kio/s", "kio/s":
		return 1, true
	case "MiBps", "miBps", "MiByte/s", "miByte/s", "MiB/s", "miB/s",
		"Miops", "miops", "Mio/s", "mio/s":
		return 2, true
	case "GiBps", "giBps", "GiByte/s", "giByte/s", "GiB/s", "giB/s",
		"Giops", "giops", "Gio/s", "gio/s":
		return 3, true
	case "TiBps", "tiBps", "TiByte/s", "tiByte/s", "TiB/s", "tiB/s",
		"Tiops", "tiops", "Tio/s", "tio/s":
		return 4, true
	}
	return 0, false
}

// parseBinaryFraction converts the fractional digit accumulator to
// whole bytes per second at the given unit level, rounding half away
// from zero.
func parseBinaryFraction(fraction uint64, fractionCnt, unit uint) (uint64, error) {
	if fractionCnt == 0 {
		return 0, nil
	}
	rounding := pow10(fractionCnt) >> 1
	wide, ok := u128From(fraction).shl(10 * unit)
	if !ok {
		return 0, ErrNumberOverflow
	}
	wide, ok = wide.add64(rounding)
	if !ok {
		return 0, ErrNumberOverflow
	}
	q, _ := wide.div64(pow10(fractionCnt))
	if !q.fits64() {
		return 0, ErrNumberOverflow
	}
	return q.lo, nil
}

// pushBinarySpan converts one completed rate-span to bits per second
// and folds it into the running total.
func (p *parser) pushBinarySpan(n, fraction uint64, fractionCnt uint, start, end int) error {
	text := p.src[start:end]
	if text == "" {
		return &UnitNeededError{Value: n, Binary: true}
	}
	unit, ok := binaryUnitLevel(text)
	if !ok {
		return &UnknownUnitError{Start: start, End: end, Unit: text, Value: n, Binary: true}
	}

	bytes, ok := u128From(n).shl(10 * unit)
	if !ok {
		return ErrNumberOverflow
	}
	frac, err := parseBinaryFraction(fraction, fractionCnt, unit)
	if err != nil {
		return err
	}
	bytes, ok = bytes.add64(frac)
	if !ok {
		return ErrNumberOverflow
	}
	bps, ok := bytes.mul64(8)
	if !ok {
		return ErrNumberOverflow
	}

	gbps, rem := bps.div64(BpsPerGbps)
	if !gbps.fits64() {
		return ErrNumberOverflow
	}
	sum, ok := p.current.checkedAdd(Bandwidth{gbps: gbps.lo, bps: uint32(rem)})
	if !ok {
		return ErrNumberOverflow
	}
	p.current = sum
	return nil
}

// ParseBinaryBandwidth parses a bandwidth expression written in the
// binary prefix system, such as "1GiBps 12MiBps 5Bps" or
// "1.012000005GiBps".
//
// The expression is a concatenation of rate-spans, each a number and a
// suffix, summed together. Supported suffixes:
//
//   - Bps, Byte/s, B/s, ops, o/s       -- Byte per second
//   - KiBps, KiByte/s, KiB/s, Kiops, Kio/s -- kibiByte per second
//   - MiBps, MiByte/s, MiB/s, Miops, Mio/s -- mebiByte per second
//   - GiBps, GiByte/s, GiB/s, Giops, Gio/s -- gibiByte per second
//   - TiBps, TiByte/s, TiB/s, Tiops, Tio/s -- tebiByte per second
//
// Numbers may be integer or decimal; any fractional part smaller than
// one byte per second is rounded to the nearest, ties away from zero.
// Underscores and whitespace may group digits.
func ParseBinaryBandwidth(s string) (Bandwidth, error) {
	p := parser{src: s}
	return p.run(p.pushBinarySpan)
}

// DisplayMode selects how a formatted bandwidth is rendered. The mode
// is fixed when the wrapper is built, not per call.
type DisplayMode int

const (
	// DisplayDecimal renders the largest nonzero unit with a decimal
	// fraction, e.g. "9.5TiB/s".
	DisplayDecimal DisplayMode = iota
	// DisplayItemized renders every nonzero component, largest unit
	// first, e.g. "9TiB/s 420GiB/s".
	DisplayItemized
)

// FormattedBinaryBandwidth renders a Bandwidth in the binary prefix
// system. It implements fmt.Stringer and fmt.Formatter; in decimal mode
// an explicit precision ("%.2v") limits the fractional digits with
// round-half-to-even.
//
// This format is not guaranteed to parse back to the same value with
// ParseBinaryBandwidth: the rate is first rounded to whole bytes per
// second, and formatting rounds ties to even while parsing rounds ties
// away from zero.
type FormattedBinaryBandwidth struct {
	bw   Bandwidth
	mode DisplayMode
}

// FormatBinaryBandwidth wraps bw for display in the binary prefix
// system, decimal mode.
func FormatBinaryBandwidth(bw Bandwidth) FormattedBinaryBandwidth {
	return FormattedBinaryBandwidth{bw: bw}
}

// WithMode returns a copy of f rendering in the given mode.
func (f FormattedBinaryBandwidth) WithMode(mode DisplayMode) FormattedBinaryBandwidth {
	f.mode = mode
	return f
}

// Bandwidth returns the wrapped value.
func (f FormattedBinaryBandwidth) Bandwidth() Bandwidth { return f.bw }

func (f FormattedBinaryBandwidth) String() string {
	var sb strings.Builder
	if f.mode == DisplayItemized {
		f.bw.appendBinaryItemized(&sb)
	} else {
		f.bw.appendBinaryDecimal(&sb, 0, false)
	}
	return sb.String()
}

// Format implements fmt.Formatter so callers can pick the fractional
// precision, e.g. fmt.Sprintf("%.2v", FormatBinaryBandwidth(bw)).
func (f FormattedBinaryBandwidth) Format(st fmt.State, _ rune) {
	var sb strings.Builder
	if f.mode == DisplayItemized {
		f.bw.appendBinaryItemized(&sb)
	} else if prec, ok := st.Precision(); ok {
		f.bw.appendBinaryDecimal(&sb, prec, true)
	} else {
		f.bw.appendBinaryDecimal(&sb, 0, false)
	}
	io.WriteString(st, sb.String())
}

// binaryComponents converts the rate to rounded whole bytes per second
// ((bits+4)/8, half up at the one-bit granularity) and decomposes it by
// powers of 1024. values[4] is the tebibyte count and may exceed 32
// bits; the lower components are all below 1024.
func (b Bandwidth) binaryComponents() (values [5]uint64) {
	total, _ := u128Mul(b.gbps, BpsPerGbps).add64(uint64(b.bps))
	total, _ = total.add64(4)
	bytes := total.shr(3)

	tib := bytes.shr(40)
	rem := bytes.lo & (1<<40 - 1)

	values[4] = tib.lo
	values[3] = rem >> 30
	values[2] = rem >> 20 & 1023
	values[1] = rem >> 10 & 1023
	values[0] = rem & 1023
	return values
}

func (b Bandwidth) appendBinaryItemized(sb *strings.Builder) {
	if b.IsZero() {
		sb.WriteString("0B/s")
		return
	}
	values := b.binaryComponents()
	started := false
	for i := 4; i >= 0; i-- {
		if values[i] == 0 {
			continue
		}
		if started {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(sb, "%d%s", values[i], binaryUnits[i])
		started = true
	}
}

func (b Bandwidth) appendBinaryDecimal(sb *strings.Builder, precision int, hasPrecision bool) {
	if b.IsZero() {
		sb.WriteString("0B/s")
		return
	}
	values := b.binaryComponents()

	index := 0
	for i := 4; i > 0; i-- {
		if values[i] > 0 {
			index = i
			break
		}
	}
	value := values[index]

	// Reassemble the components below the anchor as one base-1024
	// positional number, then rescale it to a decimal fixed-point
	// fraction: multiply by 1000^index and shift right 10*index bits,
	// rounding half to even exactly at the shift boundary.
	var sub uint64
	for i := index; i > 0; i-- {
		sub = sub*1024 + values[i-1]
	}
	digits := index * 3
	var reminder uint64
	if index > 0 {
		shift := uint(10 * index)
		wide, _ := u128Mul(sub, pow1000(uint(index))).add64(1 << (shift - 1))
		loss := wide.lo & (1<<shift - 1) // low bits about to be dropped, bias included
		reminder = wide.shr(shift).lo
		if loss == 0 && reminder%2 == 1 {
			// the discarded part was exactly one half
			reminder--
		}
	}

	if hasPrecision {
		reminder, digits = roundHalfToEven(reminder, digits, precision)
		if digits > 0 && reminder >= pow10(uint(digits)) {
			// the rounding carry reached the integer part
			value++
			reminder = 0
		}
		if precision == 0 && reminder > 0 {
			value += reminder
			reminder = 0
		}
	} else if reminder != 0 {
		for reminder%10 == 0 {
			reminder /= 10
			digits--
		}
	} else {
		digits = 0
	}

	fmt.Fprintf(sb, "%d", value)
	if digits != 0 || reminder != 0 {
		fmt.Fprintf(sb, ".%0*d", digits, reminder)
	}
	sb.WriteString(binaryUnits[index])
}

func pow1000(n uint) uint64 { return pow10(3 * n) }
