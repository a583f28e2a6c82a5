package humanbw

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNewNormalizes(t *testing.T) {
	bw := New(0, 2_500_000_000)
	if bw.Gbps() != 2 || bw.SubGbpsBps() != 500_000_000 {
		t.Errorf("got %d/%d, want 2/500000000", bw.Gbps(), bw.SubGbpsBps())
	}
	if !New(0, 0).IsZero() {
		t.Error("zero value not zero")
	}
	if New(1, 0).IsZero() {
		t.Error("1Gbps reported zero")
	}
}

func TestFromBps(t *testing.T) {
	bw := FromBps(9_420_000_000)
	if bw != New(9, 420_000_000) {
		t.Errorf("got %d/%d", bw.Gbps(), bw.SubGbpsBps())
	}
	if FromGbps(7) != New(7, 0) {
		t.Error("FromGbps mismatch")
	}
}

func TestTotalBps(t *testing.T) {
	total, ok := New(9, 420_000_000).TotalBps()
	if !ok || total != 9_420_000_000 {
		t.Errorf("got %d, %v", total, ok)
	}
	if _, ok := FromGbps(math.MaxUint64).TotalBps(); ok {
		t.Error("overflow not reported")
	}
}

func TestCmp(t *testing.T) {
	tests := []struct {
		a, b Bandwidth
		want int
	}{
		{New(1, 0), New(2, 0), -1},
		{New(2, 0), New(1, 999_999_999), 1},
		{New(1, 5), New(1, 5), 0},
		{New(1, 4), New(1, 5), -1},
	}
	for _, tt := range tests {
		if got := tt.a.Cmp(tt.b); got != tt.want {
			t.Errorf("Cmp(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCheckedAddOverflow(t *testing.T) {
	if _, ok := FromGbps(math.MaxUint64).checkedAdd(FromGbps(1)); ok {
		t.Error("gbps overflow not detected")
	}
	if _, ok := New(math.MaxUint64, 600_000_000).checkedAdd(New(0, 600_000_000)); ok {
		t.Error("carry overflow not detected")
	}
	sum, ok := New(0, 600_000_000).checkedAdd(New(0, 600_000_000))
	if !ok || sum != New(1, 200_000_000) {
		t.Errorf("got %v, %v", sum, ok)
	}
}

func TestStringUsesBinarySystem(t *testing.T) {
	if got := newBandwidth(0, 4, 512, 0, 0).String(); got != "4.5GiB/s" {
		t.Errorf("got %q, want 4.5GiB/s", got)
	}
}

func TestTextRoundTrip(t *testing.T) {
	orig := newBandwidth(0, 4, 512, 0, 0) // 4.5GiB/s, exact in decimal form
	text, err := orig.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var parsed Bandwidth
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if parsed != orig {
		t.Errorf("round trip changed the value: %v != %v", parsed, orig)
	}

	var fromJSON struct {
		Rate Bandwidth `json:"rate"`
	}
	if err := json.Unmarshal([]byte(`{"rate": "9TiB/s 420GiB/s"}`), &fromJSON); err != nil {
		t.Fatal(err)
	}
	if fromJSON.Rate != newBandwidth(9, 420, 0, 0, 0) {
		t.Errorf("json: got %v", fromJSON.Rate)
	}

	if err := parsed.UnmarshalText([]byte("12parsecs")); err == nil {
		t.Error("bad unit accepted")
	}
}
