package humanbw

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned when the input contains no digits at all.
	ErrEmpty = errors.New("humanbw: empty bandwidth string")

	// ErrNumberOverflow is returned when any checked arithmetic step
	// exceeds its integer width.
	ErrNumberOverflow = errors.New("humanbw: number is too large")
)

// InvalidCharacterError reports a lexical violation at a byte offset,
// such as a second decimal point or an unrecognized symbol.
type InvalidCharacterError struct {
	Offset int
}

func (e *InvalidCharacterError) Error() string {
	return fmt.Sprintf("invalid character at offset %d", e.Offset)
}

// UnitNeededError reports that a number was parsed but the input ended,
// or a separator was reached, before any unit was attached to it.
type UnitNeededError struct {
	// Value is the number that was parsed, used as the example in the
	// message.
	Value uint64
	// Binary is set when the binary prefix parser produced the error.
	Binary bool
}

func (e *UnitNeededError) Error() string {
	if e.Binary {
		return fmt.Sprintf("binary bandwidth unit needed, for example %dMiB/s or %dB/s", e.Value, e.Value)
	}
	return fmt.Sprintf("bandwidth unit needed, for example %dMbps or %dbps", e.Value, e.Value)
}

// UnknownUnitError reports unit text that is not in the alias table. It
// carries the offending substring, its byte range in the input, and the
// numeric value parsed just before it.
type UnknownUnitError struct {
	Start  int
	End    int
	Unit   string
	Value  uint64
	Binary bool
}

func (e *UnknownUnitError) Error() string {
	if e.Binary {
		return fmt.Sprintf("unknown binary bandwidth unit %q, supported units: B/s, KiB/s, MiB/s, GiB/s, TiB/s", e.Unit)
	}
	return fmt.Sprintf("unknown bandwidth unit %q, supported units: bps, kbps, Mbps, Gbps, Tbps", e.Unit)
}
