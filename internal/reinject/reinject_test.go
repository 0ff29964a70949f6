package reinject

import (
	"errors"
	"testing"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/deck"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/extract"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/translate"
)

func singleShapeDeck(p *deck.Paragraph) *deck.Deck {
	return &deck.Deck{
		Slides: []*deck.Slide{
			{Shapes: []*deck.Shape{
				{Frame: &deck.TextFrame{Paragraphs: []*deck.Paragraph{p}}},
			}},
		},
	}
}

func shapeLoc() extract.Location {
	return extract.Location{Kind: extract.ShapeText, Slide: 0, Shape: 0, Row: -1, Col: -1, Paragraph: 0}
}

func TestApply_SingleRunReplacedWholesale(t *testing.T) {
	p := &deck.Paragraph{Runs: []*deck.Run{{Text: "Hello"}}}
	d := singleShapeDeck(p)

	err := Apply(d, []translate.Result{
		{Unit: extract.TextUnit{ID: 0, Loc: shapeLoc(), Text: "Hello"}, Text: "Bonjour"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if p.Runs[0].Text != "Bonjour" {
		t.Errorf("expected run text %q, got %q", "Bonjour", p.Runs[0].Text)
	}
	if !p.Runs[0].Dirty() {
		t.Errorf("expected run to be marked dirty")
	}
}

func TestApply_MultiRunFirstRunTakesAll(t *testing.T) {
	p := &deck.Paragraph{Runs: []*deck.Run{
		{Text: "Hello "},
		{Text: "world"}, // italic in the source; formatting lives in the XML
		{Text: "!"},
	}}
	d := singleShapeDeck(p)

	err := Apply(d, []translate.Result{
		{Unit: extract.TextUnit{ID: 0, Loc: shapeLoc(), Text: "Hello world!"}, Text: "Bonjour monde !"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if p.Runs[0].Text != "Bonjour monde !" {
		t.Errorf("expected first run to hold the whole translation, got %q", p.Runs[0].Text)
	}
	for i, r := range p.Runs[1:] {
		if r.Text != "" {
			t.Errorf("expected run %d to be empty, got %q", i+1, r.Text)
		}
		if !r.Dirty() {
			t.Errorf("expected run %d to be marked dirty", i+1)
		}
	}
}

func TestApply_TableCellAndNotes(t *testing.T) {
	cellPara := &deck.Paragraph{Runs: []*deck.Run{{Text: "cell"}}}
	notesPara := &deck.Paragraph{Runs: []*deck.Run{{Text: "notes"}}}
	d := &deck.Deck{
		Slides: []*deck.Slide{
			{
				Shapes: []*deck.Shape{
					{Table: &deck.Table{Rows: [][]*deck.TextFrame{
						{{Paragraphs: []*deck.Paragraph{cellPara}}},
					}}},
				},
				Notes: &deck.TextFrame{Paragraphs: []*deck.Paragraph{notesPara}},
			},
		},
	}

	err := Apply(d, []translate.Result{
		{
			Unit: extract.TextUnit{Loc: extract.Location{Kind: extract.TableCell, Slide: 0, Shape: 0, Row: 0, Col: 0, Paragraph: 0}},
			Text: "cellule",
		},
		{
			Unit: extract.TextUnit{Loc: extract.Location{Kind: extract.NotesText, Slide: 0, Shape: -1, Row: -1, Col: -1, Paragraph: 0}},
			Text: "remarques",
		},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if cellPara.Runs[0].Text != "cellule" {
		t.Errorf("expected cell text %q, got %q", "cellule", cellPara.Runs[0].Text)
	}
	if notesPara.Runs[0].Text != "remarques" {
		t.Errorf("expected notes text %q, got %q", "remarques", notesPara.Runs[0].Text)
	}
}

func TestApply_UnresolvableLocation(t *testing.T) {
	d := singleShapeDeck(&deck.Paragraph{Runs: []*deck.Run{{Text: "x"}}})

	cases := []extract.Location{
		{Kind: extract.ShapeText, Slide: 5, Shape: 0, Paragraph: 0},
		{Kind: extract.ShapeText, Slide: 0, Shape: 3, Paragraph: 0},
		{Kind: extract.ShapeText, Slide: 0, Shape: 0, Paragraph: 9},
		{Kind: extract.TableCell, Slide: 0, Shape: 0, Row: 0, Col: 0, Paragraph: 0},
		{Kind: extract.NotesText, Slide: 0, Shape: -1, Paragraph: 0},
	}
	for _, loc := range cases {
		err := Apply(d, []translate.Result{{Unit: extract.TextUnit{Loc: loc}, Text: "y"}})
		if !errors.Is(err, ErrLocationResolution) {
			t.Errorf("location %v: expected ErrLocationResolution, got %v", loc, err)
		}
	}
}
