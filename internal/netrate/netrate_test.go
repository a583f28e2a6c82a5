package netrate

import (
	"testing"
	"time"

	"github.com/mackerelio/go-osstat/network"
	"github.com/stretchr/testify/require"

	"github.com/fudanchii/humanbw"
)

func testSampler(t *testing.T, iface string, feed [][]network.Stats) (*Sampler, func(time.Duration)) {
	t.Helper()

	at := time.Unix(1_700_000_000, 0)
	step := 0
	s := &Sampler{
		getStats: func() ([]network.Stats, error) {
			stats := feed[step]
			if step < len(feed)-1 {
				step++
			}
			return stats, nil
		},
		now:  func() time.Time { return at },
		only: iface,
	}
	require.NoError(t, s.prime())

	return s, func(d time.Duration) { at = at.Add(d) }
}

func TestSamplerRates(t *testing.T) {
	s, advance := testSampler(t, "", [][]network.Stats{
		{
			{Name: "lo", RxBytes: 999, TxBytes: 999},
			{Name: "eth0", RxBytes: 1000, TxBytes: 500},
		},
		{
			{Name: "lo", RxBytes: 1999, TxBytes: 1999},
			{Name: "eth0", RxBytes: 1000 + 125_000, TxBytes: 500 + 1024},
		},
	})

	advance(time.Second)
	require.NoError(t, s.Update())

	r, ok := s.Rate("eth0")
	require.True(t, ok)
	require.Equal(t, humanbw.FromBps(1_000_000), r.Rx)
	require.Equal(t, humanbw.FromBps(8192), r.Tx)

	_, ok = s.Rate("lo")
	require.False(t, ok, "loopback must be skipped")

	require.Equal(t, Counters{RxBytes: 125_000, TxBytes: 1024}, s.Totals())
	require.Equal(t, "eth0 rx:122.07KiB/s tx:1KiB/s", s.String())
}

func TestSamplerSubSecondInterval(t *testing.T) {
	s, advance := testSampler(t, "", [][]network.Stats{
		{{Name: "eth0", RxBytes: 0, TxBytes: 0}},
		{{Name: "eth0", RxBytes: 250, TxBytes: 0}},
	})

	advance(250 * time.Millisecond)
	require.NoError(t, s.Update())

	r, _ := s.Rate("eth0")
	require.Equal(t, humanbw.FromBps(8000), r.Rx)
}

func TestSamplerInterfaceFilter(t *testing.T) {
	s, advance := testSampler(t, "wlan0", [][]network.Stats{
		{
			{Name: "eth0", RxBytes: 0, TxBytes: 0},
			{Name: "wlan0", RxBytes: 0, TxBytes: 0},
		},
		{
			{Name: "eth0", RxBytes: 4096, TxBytes: 0},
			{Name: "wlan0", RxBytes: 2048, TxBytes: 0},
		},
	})

	advance(time.Second)
	require.NoError(t, s.Update())

	require.Len(t, s.Rates(), 1)
	r, ok := s.Rate("wlan0")
	require.True(t, ok)
	require.Equal(t, humanbw.FromBps(16384), r.Rx)
}

func TestSamplerCounterReset(t *testing.T) {
	s, advance := testSampler(t, "", [][]network.Stats{
		{{Name: "eth0", RxBytes: 5000, TxBytes: 5000}},
		{{Name: "eth0", RxBytes: 100, TxBytes: 100}},
	})

	advance(time.Second)
	require.NoError(t, s.Update())

	_, ok := s.Rate("eth0")
	require.False(t, ok, "a counter reset must not produce a rate")
	require.Equal(t, Counters{}, s.Totals())
}

func TestSamplerNewInterface(t *testing.T) {
	s, advance := testSampler(t, "", [][]network.Stats{
		{{Name: "eth0", RxBytes: 0, TxBytes: 0}},
		{
			{Name: "eth0", RxBytes: 1000, TxBytes: 0},
			{Name: "tun0", RxBytes: 9999, TxBytes: 0},
		},
	})

	advance(time.Second)
	require.NoError(t, s.Update())

	_, ok := s.Rate("tun0")
	require.False(t, ok, "an interface needs two snapshots before it has a rate")
}
