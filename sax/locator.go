package sax

import "github.com/cpkb-bluezoo/gonzalez-sub009/internal/xerr"

// DocumentLocator is installed on the tokenizer via SetLocator and
// mutated in place as parsing advances. Consumers that need to keep a
// position must call Snapshot: holding onto the Locator itself after
// the callback returns observes whatever position parsing has since
// reached.
type DocumentLocator interface {
	LineNumber() int
	ColumnNumber() int
	ByteOffset() int64
	SystemID() string
	PublicID() string
	Snapshot() xerr.Loc
}

// Locator is the concrete, mutable DocumentLocator implementation the
// tokenizer updates as it advances through the byte stream.
type Locator struct {
	Line   int
	Column int
	Offset int64
	System string
	Public string
}

func (l *Locator) LineNumber() int      { return l.Line }
func (l *Locator) ColumnNumber() int    { return l.Column }
func (l *Locator) ByteOffset() int64    { return l.Offset }
func (l *Locator) SystemID() string     { return l.System }
func (l *Locator) PublicID() string     { return l.Public }

// Snapshot copies the locator's current fields into an immutable Loc
// suitable for embedding in an error or for long-term retention.
func (l *Locator) Snapshot() xerr.Loc {
	return xerr.Loc{Line: l.Line, Column: l.Column, Offset: l.Offset, System: l.System}
}

// Advance updates the locator for nbytes consumed bytes containing
// newlines newlines (already normalized to LF upstream). When newlines
// is non-zero, colAfter is the column on the line following the last
// newline and replaces Column; otherwise colAfter is added to Column.
func (l *Locator) Advance(nbytes int64, newlines int, colAfter int) {
	l.Offset += nbytes
	if newlines > 0 {
		l.Line += newlines
		l.Column = colAfter
	} else {
		l.Column += colAfter
	}
}
