// Package reinject writes translated text back into the deck the
// units were extracted from, leaving formatting untouched.
package reinject

import (
	"errors"
	"fmt"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/deck"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/extract"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/translate"
)

// ErrLocationResolution reports a unit whose recorded location no
// longer resolves to a paragraph. Extraction and reinjection share
// one deck instance for the unit's lifetime, so this indicates an
// internal invariant violation and is checked defensively.
var ErrLocationResolution = errors.New("text unit location does not resolve")

// Apply writes each translation into its original paragraph.
//
// A paragraph with a single run gets the translated string in that
// run, all formatting attributes untouched. A paragraph with several
// runs gets the whole string in its first run and the later runs
// emptied: their formatting survives on the now-empty run nodes, and
// no guess is made at token-level alignment between languages.
// Paragraph-level attributes are never touched.
func Apply(d *deck.Deck, results []translate.Result) error {
	for _, res := range results {
		para, err := resolve(d, res.Unit.Loc)
		if err != nil {
			return err
		}
		if len(para.Runs) == 0 {
			return fmt.Errorf("%w: %s has no runs", ErrLocationResolution, res.Unit.Loc)
		}
		para.Runs[0].SetText(res.Text)
		for _, r := range para.Runs[1:] {
			r.SetText("")
		}
	}
	return nil
}

// resolve walks the deck by the unit's recorded indices.
func resolve(d *deck.Deck, loc extract.Location) (*deck.Paragraph, error) {
	if loc.Slide < 0 || loc.Slide >= len(d.Slides) {
		return nil, fmt.Errorf("%w: %s", ErrLocationResolution, loc)
	}
	slide := d.Slides[loc.Slide]

	var frame *deck.TextFrame
	switch loc.Kind {
	case extract.ShapeText:
		shape, err := shapeAt(slide, loc)
		if err != nil {
			return nil, err
		}
		frame = shape.Frame
	case extract.TableCell:
		shape, err := shapeAt(slide, loc)
		if err != nil {
			return nil, err
		}
		if shape.Table == nil || loc.Row < 0 || loc.Row >= len(shape.Table.Rows) {
			return nil, fmt.Errorf("%w: %s", ErrLocationResolution, loc)
		}
		row := shape.Table.Rows[loc.Row]
		if loc.Col < 0 || loc.Col >= len(row) {
			return nil, fmt.Errorf("%w: %s", ErrLocationResolution, loc)
		}
		frame = row[loc.Col]
	case extract.NotesText:
		frame = slide.Notes
	default:
		return nil, fmt.Errorf("%w: %s", ErrLocationResolution, loc)
	}

	if frame == nil || loc.Paragraph < 0 || loc.Paragraph >= len(frame.Paragraphs) {
		return nil, fmt.Errorf("%w: %s", ErrLocationResolution, loc)
	}
	return frame.Paragraphs[loc.Paragraph], nil
}

func shapeAt(slide *deck.Slide, loc extract.Location) (*deck.Shape, error) {
	if loc.Shape < 0 || loc.Shape >= len(slide.Shapes) {
		return nil, fmt.Errorf("%w: %s", ErrLocationResolution, loc)
	}
	return slide.Shapes[loc.Shape], nil
}
