// Package extract walks a deck and produces the ordered text units
// sent for translation.
package extract

import (
	"fmt"
	"strings"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/deck"
)

// Kind tags the origin of a text unit.
type Kind int

const (
	ShapeText Kind = iota
	TableCell
	NotesText
)

func (k Kind) String() string {
	switch k {
	case ShapeText:
		return "shape"
	case TableCell:
		return "table_cell"
	case NotesText:
		return "notes"
	}
	return "unknown"
}

// Location addresses exactly one paragraph in the deck. It is a plain
// index tuple, never a pointer into the tree: the reinjector resolves
// it against the same deck the unit was extracted from.
type Location struct {
	Kind      Kind
	Slide     int
	Shape     int // -1 for notes
	Row, Col  int // table cells only, -1 otherwise
	Paragraph int
}

func (l Location) String() string {
	switch l.Kind {
	case TableCell:
		return fmt.Sprintf("slide %d shape %d cell (%d,%d) paragraph %d", l.Slide, l.Shape, l.Row, l.Col, l.Paragraph)
	case NotesText:
		return fmt.Sprintf("slide %d notes paragraph %d", l.Slide, l.Paragraph)
	default:
		return fmt.Sprintf("slide %d shape %d paragraph %d", l.Slide, l.Shape, l.Paragraph)
	}
}

// TextUnit is one translatable paragraph. IDs are assigned in
// traversal order and form a contiguous 0-based sequence; that order
// is the alignment contract between translation request and response.
type TextUnit struct {
	ID   int
	Loc  Location
	Text string
}

// Units walks the deck in document order and returns every non-empty
// paragraph as a text unit: per slide, shapes first (a shape's own
// text frame, or its table's cells row-major), then the notes body.
// Runs within a paragraph are concatenated so the provider sees whole
// sentences; paragraphs whose text is empty or whitespace-only are
// skipped. The walk never mutates the deck.
func Units(d *deck.Deck) ([]TextUnit, error) {
	var units []TextUnit

	add := func(loc Location, text string) {
		units = append(units, TextUnit{ID: len(units), Loc: loc, Text: text})
	}

	for si, slide := range d.Slides {
		for shi, shape := range slide.Shapes {
			if shape.Frame != nil {
				for pi, para := range shape.Frame.Paragraphs {
					if text := para.Text(); strings.TrimSpace(text) != "" {
						add(Location{Kind: ShapeText, Slide: si, Shape: shi, Row: -1, Col: -1, Paragraph: pi}, text)
					}
				}
			}
			if shape.Table != nil {
				if err := checkGrid(si, shi, shape.Table); err != nil {
					return nil, err
				}
				for ri, row := range shape.Table.Rows {
					for ci, cellFrame := range row {
						for pi, para := range cellFrame.Paragraphs {
							if text := para.Text(); strings.TrimSpace(text) != "" {
								add(Location{Kind: TableCell, Slide: si, Shape: shi, Row: ri, Col: ci, Paragraph: pi}, text)
							}
						}
					}
				}
			}
		}
		if slide.Notes != nil {
			for pi, para := range slide.Notes.Paragraphs {
				if text := para.Text(); strings.TrimSpace(text) != "" {
					add(Location{Kind: NotesText, Slide: si, Shape: -1, Row: -1, Col: -1, Paragraph: pi}, text)
				}
			}
		}
	}

	return units, nil
}

func checkGrid(slide, shape int, t *deck.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	want := len(t.Rows[0])
	for i, row := range t.Rows {
		if len(row) != want {
			return fmt.Errorf("%w: slide %d shape %d: table row %d has %d cells, row 0 has %d",
				deck.ErrMalformed, slide, shape, i, len(row), want)
		}
	}
	return nil
}
