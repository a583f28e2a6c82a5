package humanbw

import (
	"fmt"
	"io"
	"strings"
)

var siUnits = [5]string{"bps", "kbps", "Mbps", "Gbps", "Tbps"}

// siUnitLevel resolves an SI unit alias to its power of 1000. The
// prefix letter is accepted in either case.
func siUnitLevel(unit string) (uint, bool) {
	switch unit {
	case "bps", "bit/s":
		return 0, true
	case "kbps", "Kbps", "kbit/s", "Kbit/s":
		return 1, true
	case "Mbps", "mbps", "Mbit/s", "mbit/s":
		return 2, true
	case "Gbps", "gbps", "Gbit/s", "gbit/s":
		return 3, true
	case "Tbps", "tbps", "Tbit/s", "tbit/s":
		return 4, true
	}
	return 0, false
}

// parseSIFraction converts the fractional digit accumulator to whole
// bits per second at the given unit level, rounding half away from zero.
func parseSIFraction(fraction uint64, fractionCnt, unit uint) (uint64, error) {
	if fractionCnt == 0 {
		return 0, nil
	}
	rounding := pow10(fractionCnt) >> 1
	wide, ok := u128Mul(fraction, pow1000(unit)).add64(rounding)
	if !ok {
		return 0, ErrNumberOverflow
	}
	q, _ := wide.div64(pow10(fractionCnt))
	if !q.fits64() {
		return 0, ErrNumberOverflow
	}
	return q.lo, nil
}

func (p *parser) pushSISpan(n, fraction uint64, fractionCnt uint, start, end int) error {
	text := p.src[start:end]
	if text == "" {
		return &UnitNeededError{Value: n}
	}
	unit, ok := siUnitLevel(text)
	if !ok {
		return &UnknownUnitError{Start: start, End: end, Unit: text, Value: n}
	}

	bps, ok := u128From(n).mul64(pow1000(unit))
	if !ok {
		return ErrNumberOverflow
	}
	frac, err := parseSIFraction(fraction, fractionCnt, unit)
	if err != nil {
		return err
	}
	bps, ok = bps.add64(frac)
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

// ParseBandwidth parses a bandwidth expression written in the SI
// system, such as "9Gbps 420Mbps" or "1.5kbps". Each rate-span is a
// number and one of the suffixes bps, kbps, Mbps, Gbps or Tbps; spans
// are summed. Fractions smaller than one bit per second round to the
// nearest, ties away from zero.
func ParseBandwidth(s string) (Bandwidth, error) {
	p := parser{src: s}
	return p.run(p.pushSISpan)
}

// FormattedBandwidth renders a Bandwidth in the SI system. The same
// mode and precision rules as FormattedBinaryBandwidth apply, except
// that the decomposition is exact: powers of 1000 need no binary-shift
// rounding step.
type FormattedBandwidth struct {
	bw   Bandwidth
	mode DisplayMode
}

// FormatBandwidth wraps bw for display in the SI system, decimal mode.
func FormatBandwidth(bw Bandwidth) FormattedBandwidth {
	return FormattedBandwidth{bw: bw}
}

// WithMode returns a copy of f rendering in the given mode.
func (f FormattedBandwidth) WithMode(mode DisplayMode) FormattedBandwidth {
	f.mode = mode
	return f
}

// Bandwidth returns the wrapped value.
func (f FormattedBandwidth) Bandwidth() Bandwidth { return f.bw }

func (f FormattedBandwidth) String() string {
	var sb strings.Builder
	if f.mode == DisplayItemized {
		f.bw.appendSIItemized(&sb)
	} else {
		f.bw.appendSIDecimal(&sb, 0, false)
	}
	return sb.String()
}

// Format implements fmt.Formatter; "%.2v" renders two fractional digits.
func (f FormattedBandwidth) Format(st fmt.State, _ rune) {
	var sb strings.Builder
	if f.mode == DisplayItemized {
		f.bw.appendSIItemized(&sb)
	} else if prec, ok := st.Precision(); ok {
		f.bw.appendSIDecimal(&sb, prec, true)
	} else {
		f.bw.appendSIDecimal(&sb, 0, false)
	}
	io.WriteString(st, sb.String())
}

// siComponents decomposes the rate into terabit through bit counts.
// values[4] may exceed 32 bits; the lower components are below 1000.
func (b Bandwidth) siComponents() (values [5]uint64) {
	total, _ := u128Mul(b.gbps, BpsPerGbps).add64(uint64(b.bps))

	tbps, rem128 := total.div64(1_000_000_000_000)
	rem := rem128

	values[4] = tbps.lo
	values[3] = rem / 1_000_000_000
	values[2] = rem / 1_000_000 % 1_000
	values[1] = rem / 1_000 % 1_000
	values[0] = rem % 1_000
	return values
}

func (b Bandwidth) appendSIItemized(sb *strings.Builder) {
	if b.IsZero() {
		sb.WriteString("0bps")
		return
	}
	values := b.siComponents()
	started := false
	for i := 4; i >= 0; i-- {
		if values[i] == 0 {
			continue
		}
		if started {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(sb, "%d%s", values[i], siUnits[i])
		started = true
	}
}

func (b Bandwidth) appendSIDecimal(sb *strings.Builder, precision int, hasPrecision bool) {
	if b.IsZero() {
		sb.WriteString("0bps")
		return
	}
	values := b.siComponents()

	index := 0
	for i := 4; i > 0; i-- {
		if values[i] > 0 {
			index = i
			break
		}
	}
	value := values[index]

	var reminder uint64
	for i := index; i > 0; i-- {
		reminder = reminder*1000 + values[i-1]
	}
	digits := index * 3

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
	sb.WriteString(siUnits[index])
}
