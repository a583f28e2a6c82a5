package humanbw

import (
	"math"
	"testing"
)

func TestRoundHalfToEven(t *testing.T) {
	tests := []struct {
		rem        uint64
		digits     int
		prec       int
		wantRem    uint64
		wantDigits int
	}{
		{0, 0, 2, 0, 0},
		{125, 3, 3, 125, 3},
		{125, 3, 5, 125, 3},
		{994, 3, 2, 99, 2},
		{996, 3, 2, 100, 2},
		// a discarded tail resolves later halves against the
		// original value, not against the already rounded one
		{449, 3, 1, 4, 1},
		{451, 3, 1, 5, 1},
		{251, 3, 1, 3, 1},
		{250, 3, 1, 2, 1},
		{350, 3, 1, 4, 1},
		{55, 2, 1, 6, 1},
		{45, 2, 1, 4, 1},
		{999, 3, 1, 10, 1}, // carry surfaces one digit wide
		{4999, 4, 0, 0, 0},
		{5000, 4, 0, 0, 0},
		{5001, 4, 0, 1, 0},
		{750_000_000_000, 12, 1, 8, 1},
		{375_000_000_000, 12, 2, 38, 2},
	}
	for _, tt := range tests {
		rem, digits := roundHalfToEven(tt.rem, tt.digits, tt.prec)
		if rem != tt.wantRem || digits != tt.wantDigits {
			t.Errorf("roundHalfToEven(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.rem, tt.digits, tt.prec, rem, digits, tt.wantRem, tt.wantDigits)
		}
	}
}

func TestAccumulateDigit(t *testing.T) {
	acc := uint64(0)
	for _, d := range []uint64{1, 2, 3} {
		var ok bool
		if acc, ok = accumulateDigit(acc, d); !ok {
			t.Fatal("unexpected overflow")
		}
	}
	if acc != 123 {
		t.Errorf("got %d, want 123", acc)
	}
	if _, ok := accumulateDigit(math.MaxUint64/10+1, 0); ok {
		t.Error("multiply overflow not detected")
	}
	if _, ok := accumulateDigit(math.MaxUint64/10, 6); ok {
		t.Error("add overflow not detected")
	}
	if got, ok := accumulateDigit(math.MaxUint64/10, 5); !ok || got != math.MaxUint64 {
		t.Errorf("got %d, %v; want MaxUint64, true", got, ok)
	}
}

func TestU128Arithmetic(t *testing.T) {
	x := u128Mul(math.MaxUint64, 2)
	if x.hi != 1 || x.lo != math.MaxUint64-1 {
		t.Errorf("u128Mul: got %+v", x)
	}
	if x.fits64() {
		t.Error("fits64 true for a wide value")
	}

	sum, ok := x.add64(1)
	if !ok || sum.hi != 1 || sum.lo != math.MaxUint64 {
		t.Errorf("add64: got %+v, %v", sum, ok)
	}
	if _, ok := (u128{hi: math.MaxUint64, lo: math.MaxUint64}).add64(1); ok {
		t.Error("add64 overflow not detected")
	}

	prod, ok := u128From(1 << 60).mul64(1 << 10)
	if !ok || prod.hi != 1<<6 || prod.lo != 0 {
		t.Errorf("mul64: got %+v, %v", prod, ok)
	}
	if _, ok := (u128{hi: 1 << 63}).mul64(2); ok {
		t.Error("mul64 overflow not detected")
	}

	shifted, ok := u128From(1).shl(40)
	if !ok || shifted.lo != 1<<40 {
		t.Errorf("shl: got %+v, %v", shifted, ok)
	}
	if _, ok := (u128{hi: 1 << 63}).shl(1); ok {
		t.Error("shl loss not detected")
	}
	back := shifted.shr(40)
	if back.hi != 0 || back.lo != 1 {
		t.Errorf("shr: got %+v", back)
	}

	q, r := u128Mul(10_000_000_007, 1_000_000_000).div64(1_000_000_000)
	if !q.fits64() || q.lo != 10_000_000_007 || r != 0 {
		t.Errorf("div64: got %+v rem %d", q, r)
	}
	q, r = u128From(1_234_567_891).div64(1_000_000_000)
	if q.lo != 1 || r != 234_567_891 {
		t.Errorf("div64: got %+v rem %d", q, r)
	}
}

func TestPow10(t *testing.T) {
	if got := pow10(0); got != 1 {
		t.Errorf("pow10(0) = %d", got)
	}
	if got := pow10(18); got != 1_000_000_000_000_000_000 {
		t.Errorf("pow10(18) = %d", got)
	}
	if got := pow1000(4); got != 1_000_000_000_000 {
		t.Errorf("pow1000(4) = %d", got)
	}
}
