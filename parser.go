package humanbw

import (
	"math/bits"
	"unicode"
	"unicode/utf8"
)

// fractionPartLimit caps the number of significant fractional digits a
// rate-span may carry. Digits beyond the cap are discarded, not
// rounded; the cap keeps the digit accumulator within uint64 for any
// input length.
const fractionPartLimit = 18

// parser is the transient cursor state for a single parse call. It
// scans rate-spans left to right and folds each one into current.
type parser struct {
	src     string
	pos     int
	current Bandwidth
}

// next consumes the rune at the cursor, returning it together with its
// byte offset.
func (p *parser) next() (c rune, off int, ok bool) {
	if p.pos >= len(p.src) {
		return 0, p.pos, false
	}
	c, size := utf8.DecodeRuneInString(p.src[p.pos:])
	off = p.pos
	p.pos += size
	return c, off, true
}

// parseFirstChar skips whitespace and group separators up to the first
// digit of the next rate-span. ok is false at end of input.
func (p *parser) parseFirstChar() (digit uint64, ok bool, err error) {
	for {
		c, off, more := p.next()
		if !more {
			return 0, false, nil
		}
		switch {
		case c >= '0' && c <= '9':
			return uint64(c - '0'), true, nil
		case c == '_' || unicode.IsSpace(c):
		default:
			return 0, false, &InvalidCharacterError{Offset: off}
		}
	}
}

// run drives the rate-span state machine: integer digits, an optional
// single fraction, then unit letters. A digit met while scanning unit
// letters closes the span and starts the next number without any
// separator. Each completed span is handed to push along with the byte
// range of its unit text; push folds it into p.current. Spans already
// folded stay in the total even when a later span fails.
func (p *parser) run(push func(n, fraction uint64, fractionCnt uint, start, end int) error) (Bandwidth, error) {
	n, ok, err := p.parseFirstChar()
	if err != nil {
		return Bandwidth{}, err
	}
	if !ok {
		return Bandwidth{}, ErrEmpty
	}

	var (
		decimal     bool
		fraction    uint64
		fractionCnt uint
	)
outer:
	for {
		start := p.pos
	digits:
		for {
			c, off, more := p.next()
			if !more {
				start = p.pos
				break
			}
			switch {
			case c >= '0' && c <= '9':
				d := uint64(c - '0')
				if decimal {
					if fractionCnt >= fractionPartLimit {
						continue
					}
					if fraction, ok = accumulateDigit(fraction, d); !ok {
						return Bandwidth{}, ErrNumberOverflow
					}
					fractionCnt++
				} else {
					if n, ok = accumulateDigit(n, d); !ok {
						return Bandwidth{}, ErrNumberOverflow
					}
				}
			case c == '_' || unicode.IsSpace(c):
			case c == '.':
				if decimal {
					return Bandwidth{}, &InvalidCharacterError{Offset: off}
				}
				decimal = true
			case isUnitRune(c):
				start = off
				break digits
			default:
				return Bandwidth{}, &InvalidCharacterError{Offset: off}
			}
		}

		end := p.pos
	unit:
		for {
			c, off, more := p.next()
			if !more {
				end = p.pos
				break
			}
			switch {
			case c >= '0' && c <= '9':
				if err := push(n, fraction, fractionCnt, start, off); err != nil {
					return Bandwidth{}, err
				}
				n = uint64(c - '0')
				fraction, fractionCnt, decimal = 0, 0, false
				continue outer
			case unicode.IsSpace(c):
				end = off
				break unit
			case isUnitRune(c):
			default:
				return Bandwidth{}, &InvalidCharacterError{Offset: off}
			}
		}

		if err := push(n, fraction, fractionCnt, start, end); err != nil {
			return Bandwidth{}, err
		}
		n, ok, err = p.parseFirstChar()
		if err != nil {
			return Bandwidth{}, err
		}
		if !ok {
			return p.current, nil
		}
		fraction, fractionCnt, decimal = 0, 0, false
	}
}

// isUnitRune reports whether c may appear inside a unit alias.
func isUnitRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '/'
}

// accumulateDigit folds one decimal digit into acc, failing on uint64
// overflow instead of wrapping.
func accumulateDigit(acc, digit uint64) (uint64, bool) {
	hi, lo := bits.Mul64(acc, 10)
	if hi != 0 {
		return 0, false
	}
	sum, carry := bits.Add64(lo, digit, 0)
	return sum, carry == 0
}

var pow10tab = [19]uint64{
	1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000,
	100_000_000, 1_000_000_000, 10_000_000_000, 100_000_000_000,
	1_000_000_000_000, 10_000_000_000_000, 100_000_000_000_000,
	1_000_000_000_000_000, 10_000_000_000_000_000,
	100_000_000_000_000_000, 1_000_000_000_000_000_000,
}

func pow10(n uint) uint64 { return pow10tab[n] }

// u128 is the wide unsigned integer used for intermediate fixed-point
// conversion. Operations that can lose bits report failure instead of
// wrapping.
type u128 struct {
	hi, lo uint64
}

func u128From(v uint64) u128 { return u128{lo: v} }

func u128Mul(x, y uint64) u128 {
	hi, lo := bits.Mul64(x, y)
	return u128{hi: hi, lo: lo}
}

func (x u128) fits64() bool { return x.hi == 0 }

func (x u128) add(y u128) (u128, bool) {
	lo, carry := bits.Add64(x.lo, y.lo, 0)
	hi, overflow := bits.Add64(x.hi, y.hi, carry)
	return u128{hi: hi, lo: lo}, overflow == 0
}

func (x u128) add64(y uint64) (u128, bool) {
	return x.add(u128From(y))
}

func (x u128) mul64(y uint64) (u128, bool) {
	carryHi, carryLo := bits.Mul64(x.hi, y)
	if carryHi != 0 {
		return u128{}, false
	}
	hi, lo := bits.Mul64(x.lo, y)
	hi, overflow := bits.Add64(hi, carryLo, 0)
	return u128{hi: hi, lo: lo}, overflow == 0
}

// shl shifts left by n (0 < n < 64), failing when high bits are lost.
func (x u128) shl(n uint) (u128, bool) {
	if n == 0 {
		return x, true
	}
	if x.hi>>(64-n) != 0 {
		return u128{}, false
	}
	return u128{hi: x.hi<<n | x.lo>>(64-n), lo: x.lo << n}, true
}

// shr shifts right by n (0 < n < 64).
func (x u128) shr(n uint) u128 {
	if n == 0 {
		return x
	}
	return u128{hi: x.hi >> n, lo: x.lo>>n | x.hi<<(64-n)}
}

// div64 divides x by d, returning the wide quotient and the remainder.
func (x u128) div64(d uint64) (u128, uint64) {
	qhi := x.hi / d
	rem := x.hi % d
	qlo, r := bits.Div64(rem, x.lo, d)
	return u128{hi: qhi, lo: qlo}, r
}

// roundHalfToEven drops decimal digits from rem until at most prec
// remain, rounding half to even relative to the original value. A
// running direction flag remembers whether previously discarded digits
// already pushed the value below (-1) or above (+1) the original, so a
// chain of trailing 5s resolves against the original value rather than
// naively per digit. It returns the shortened remainder and the digit
// count that remains.
func roundHalfToEven(rem uint64, digits, prec int) (uint64, int) {
	direction := 0
	for prec < digits {
		loss := rem % 10
		rem /= 10
		switch {
		case loss == 0:
			// direction does not change
		case loss < 5:
			direction = -1
		case loss == 5:
			switch direction {
			case 0:
				// exactly in the middle: round toward even
				if rem%2 == 1 {
					rem++
					direction = 1
				} else {
					direction = -1
				}
			case -1:
				// already below the original, go up
				rem++
				direction = 1
			default:
				// already above the original, stay down
				direction = -1
			}
		default:
			rem++
			direction = 1
		}
		digits--
	}
	return rem, digits
}
