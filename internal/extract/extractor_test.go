package extract

import (
	"errors"
	"testing"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/deck"
)

func para(texts ...string) *deck.Paragraph {
	p := &deck.Paragraph{}
	for _, t := range texts {
		p.Runs = append(p.Runs, &deck.Run{Text: t})
	}
	return p
}

func frame(paras ...*deck.Paragraph) *deck.TextFrame {
	return &deck.TextFrame{Paragraphs: paras}
}

func TestUnits_TraversalOrder(t *testing.T) {
	d := &deck.Deck{
		Slides: []*deck.Slide{
			{
				Shapes: []*deck.Shape{
					{Frame: frame(para("Title"), para("Subtitle"))},
					{Frame: frame(para("Body"))},
				},
				Notes: frame(para("Speaker notes")),
			},
			{
				Shapes: []*deck.Shape{
					{Frame: frame(para("Second slide"))},
				},
			},
		},
	}

	units, err := Units(d)
	if err != nil {
		t.Fatalf("Units: %v", err)
	}

	want := []string{"Title", "Subtitle", "Body", "Speaker notes", "Second slide"}
	if len(units) != len(want) {
		t.Fatalf("expected %d units, got %d", len(want), len(units))
	}
	for i, u := range units {
		if u.ID != i {
			t.Errorf("unit %d: expected id %d, got %d", i, i, u.ID)
		}
		if u.Text != want[i] {
			t.Errorf("unit %d: expected text %q, got %q", i, want[i], u.Text)
		}
	}

	if units[3].Loc.Kind != NotesText {
		t.Errorf("expected unit 3 to be notes, got %v", units[3].Loc.Kind)
	}
	if units[4].Loc.Slide != 1 {
		t.Errorf("expected unit 4 on slide 1, got %d", units[4].Loc.Slide)
	}
}

func TestUnits_ConcatenatesRunsWithinParagraph(t *testing.T) {
	d := &deck.Deck{
		Slides: []*deck.Slide{
			{Shapes: []*deck.Shape{
				{Frame: frame(para("Hello ", "world", "!"))},
			}},
		},
	}

	units, err := Units(d)
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	if units[0].Text != "Hello world!" {
		t.Errorf("expected concatenated text, got %q", units[0].Text)
	}
}

func TestUnits_SkipsEmptyContent(t *testing.T) {
	d := &deck.Deck{
		Slides: []*deck.Slide{
			{Shapes: []*deck.Shape{
				{},                                  // picture: no frame, no table
				{Frame: frame(para(""), para("  "))}, // nothing translatable
				{Frame: frame(para("Real text"))},
			}},
		},
	}

	units, err := Units(d)
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	if units[0].Loc.Shape != 2 {
		t.Errorf("expected unit addressed to shape 2, got %d", units[0].Loc.Shape)
	}
	if units[0].ID != 0 {
		t.Errorf("expected contiguous ids starting at 0, got %d", units[0].ID)
	}
}

func TestUnits_TableCellsRowMajor(t *testing.T) {
	d := &deck.Deck{
		Slides: []*deck.Slide{
			{Shapes: []*deck.Shape{
				{Table: &deck.Table{Rows: [][]*deck.TextFrame{
					{frame(para("top left")), frame(para(""))},
					{frame(), frame(para("bottom right"))},
				}}},
			}},
		},
	}

	units, err := Units(d)
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}

	first, second := units[0], units[1]
	if first.Loc.Kind != TableCell || first.Loc.Row != 0 || first.Loc.Col != 0 {
		t.Errorf("expected first unit at cell (0,0), got (%d,%d)", first.Loc.Row, first.Loc.Col)
	}
	if second.Loc.Row != 1 || second.Loc.Col != 1 {
		t.Errorf("expected second unit at cell (1,1), got (%d,%d)", second.Loc.Row, second.Loc.Col)
	}
	if first.Text != "top left" || second.Text != "bottom right" {
		t.Errorf("unexpected texts %q, %q", first.Text, second.Text)
	}
}

func TestUnits_MalformedTableGrid(t *testing.T) {
	d := &deck.Deck{
		Slides: []*deck.Slide{
			{Shapes: []*deck.Shape{
				{Table: &deck.Table{Rows: [][]*deck.TextFrame{
					{frame(), frame()},
					{frame()},
				}}},
			}},
		},
	}

	_, err := Units(d)
	if !errors.Is(err, deck.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestUnits_NotesComeAfterShapes(t *testing.T) {
	d := &deck.Deck{
		Slides: []*deck.Slide{
			{
				Shapes: []*deck.Shape{{Frame: frame(para("A"))}},
				Notes:  frame(para("B")),
			},
		},
	}

	units, err := Units(d)
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Text != "A" || units[1].Text != "B" {
		t.Errorf("expected order [A B], got [%s %s]", units[0].Text, units[1].Text)
	}
	if units[1].Loc.Kind != NotesText {
		t.Errorf("expected second unit from notes, got %v", units[1].Loc.Kind)
	}
}
