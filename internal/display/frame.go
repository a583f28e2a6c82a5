// Package display renders status lines into the fixed frame of a 4x20
// character LCD driven over a serial line.
package display

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Columns = 20
	Rows    = 4
	Size    = Rows * Columns
)

var (
	ErrNoSuchLine   = errors.New("display: no such line")
	ErrInvalidStyle = errors.New("display: style list must name all 4 lines (e.g. t,m,t,t)")
)

// LineStyle decides how a logical line longer than Columns characters
// is fitted into its row.
type LineStyle interface {
	set(text string)
	render(row []byte)
}

// ParseStyles parses a comma separated style list, one entry per line:
// "t" trims, "m" scrolls as an endless marquee.
func ParseStyles(list string) ([Rows]LineStyle, error) {
	var styles [Rows]LineStyle

	entries := strings.Split(list, ",")
	if len(entries) != Rows {
		return styles, ErrInvalidStyle
	}
	for i, entry := range entries {
		switch entry {
		case "t":
			styles[i] = &Trim{}
		case "m":
			styles[i] = &Marquee{}
		default:
			return styles, fmt.Errorf("display: unknown style %q for line %d", entry, i+1)
		}
	}
	return styles, nil
}

// Trim cuts the line at the right edge.
type Trim struct {
	text    string
	changed bool
}

func (t *Trim) set(text string) {
	t.text = fmt.Sprintf("%-*s", Columns, text)
	t.changed = true
}

func (t *Trim) render(row []byte) {
	if t.changed {
		copy(row, t.text[:Columns])
		t.changed = false
	}
}

// Marquee scrolls the line left one cell per render, feeding the next
// text in behind the current one.
type Marquee struct {
	text string
	next string
	pos  int
}

func (m *Marquee) set(text string) {
	if len(text) >= Columns {
		text += " . "
	}
	m.next = fmt.Sprintf("%-*s", Columns, text)
	if m.text == "" {
		m.text = m.next
		m.pos = 0
	}
}

func (m *Marquee) render(row []byte) {
	trailer := ""
	end := m.pos + Columns
	if end >= len(m.text) {
		end = len(m.text)
		trailer = m.next[:Columns-(end-m.pos)]
	}
	copy(row, m.text[m.pos:end]+trailer)

	m.pos++
	if m.pos == len(m.text) {
		m.text = m.next
		m.pos = 0
	}
}

// rowOffsets maps logical lines to their byte ranges in the frame. The
// HD44780 controller addresses rows out of order: the stream carries
// lines 1, 3, 2, 4.
var rowOffsets = [Rows]int{0, 40, 20, 60}

// Frame assembles the 80 byte payload the LCD firmware expects.
type Frame struct {
	cells  [Size]byte
	styles [Rows]LineStyle
}

// NewFrame builds a frame with the given per-line styles; lines without
// one default to Trim.
func NewFrame(styles [Rows]LineStyle) *Frame {
	f := &Frame{styles: styles}
	for i := range f.styles {
		if f.styles[i] == nil {
			f.styles[i] = &Trim{}
		}
	}
	for i := range f.cells {
		f.cells[i] = ' '
	}
	return f
}

// SetLine replaces the text of one logical line, 0 through 3.
func (f *Frame) SetLine(line int, text string) error {
	if line < 0 || line >= Rows {
		return ErrNoSuchLine
	}
	f.styles[line].set(text)
	return nil
}

// Next advances every line style one step and returns the payload for
// the coming refresh. The returned slice aliases the frame.
func (f *Frame) Next() []byte {
	for i, style := range f.styles {
		off := rowOffsets[i]
		style.render(f.cells[off : off+Columns])
	}
	return f.cells[:]
}
