// Package deck holds the in-memory model of a presentation: slides,
// shapes, tables, paragraphs and runs. It carries text and addressing
// only; run-level formatting stays in the source XML and is never
// copied out.
package deck

import "errors"

// ErrMalformed reports a presentation that does not conform to the
// expected slide/shape/table/notes schema.
var ErrMalformed = errors.New("malformed presentation")

// Deck is one parsed presentation.
type Deck struct {
	Slides []*Slide
}

// Slide is one slide in document order.
type Slide struct {
	// Part is the archive entry the slide was parsed from,
	// e.g. "ppt/slides/slide1.xml".
	Part   string
	Shapes []*Shape

	// Notes is the body text frame of the slide's notes part,
	// nil when the slide has none.
	Notes     *TextFrame
	NotesPart string
}

// Shape is one shape in document order. Shapes inside groups are
// flattened into their enclosing slide's shape list. A shape has at
// most one of Frame or Table; both nil means the shape carries no
// text (picture, connector, ...).
type Shape struct {
	Frame *TextFrame
	Table *Table
}

// Table is a grid of cell text frames. Rows must be rectangular:
// every row has the same number of cells.
type Table struct {
	Rows [][]*TextFrame
}

// TextFrame is an ordered list of paragraphs.
type TextFrame struct {
	Paragraphs []*Paragraph
}

// Paragraph is an ordered list of runs.
type Paragraph struct {
	Runs []*Run
}

// Text returns the paragraph's runs concatenated in order.
func (p *Paragraph) Text() string {
	var s string
	for _, r := range p.Runs {
		s += r.Text
	}
	return s
}

// Run is one styled span of text. Span locates the run's literal text
// inside its source XML part so the writer can splice a replacement
// without touching any surrounding markup.
type Run struct {
	Text string
	Span Span

	dirty bool
}

// SetText replaces the run's text and marks the run for rewriting.
func (r *Run) SetText(s string) {
	r.Text = s
	r.dirty = true
}

// Dirty reports whether the run's text was changed after parsing.
func (r *Run) Dirty() bool {
	return r.dirty
}

// Span is a byte range inside the run's source XML part.
//
// For a normal <a:t>...</a:t> element, Start/End bound the character
// content. For a self-closed <a:t/>, SelfClosed is set and
// TagStart/End bound the whole tag, which must be replaced outright
// to give the run content.
type Span struct {
	Start, End int64
	TagStart   int64
	SelfClosed bool
}
