package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/deck"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
</Types>`

const presentationXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<p:sldIdLst><p:sldId id="256" r:id="rId1"/></p:sldIdLst>
</p:presentation>`

const presentationRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>
</Relationships>`

const slide1XML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:sp><p:txBody>
<a:p><a:r><a:rPr b="1"/><a:t>Hello </a:t></a:r><a:r><a:rPr i="1"/><a:t>world</a:t></a:r><a:r><a:t>!</a:t></a:r></a:p>
</p:txBody></p:sp>
<p:sp><p:txBody>
<a:p><a:r><a:t xml:space="preserve"/></a:r><a:r><a:t>tail</a:t></a:r></a:p>
</p:txBody></p:sp>
<p:graphicFrame><a:graphic><a:graphicData>
<a:tbl>
<a:tr><a:tc><a:txBody><a:p><a:r><a:t>top left</a:t></a:r></a:p></a:txBody></a:tc><a:tc><a:txBody><a:p/></a:txBody></a:tc></a:tr>
<a:tr><a:tc><a:txBody><a:p/></a:txBody></a:tc><a:tc><a:txBody><a:p><a:r><a:t>bottom right</a:t></a:r></a:p></a:txBody></a:tc></a:tr>
</a:tbl>
</a:graphicData></a:graphic></p:graphicFrame>
</p:spTree></p:cSld>
</p:sld>`

const slide1RelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide1.xml"/>
</Relationships>`

const notesSlide1XML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:sp><p:nvSpPr><p:nvPr><p:ph type="sldImg"/></p:nvPr></p:nvSpPr></p:sp>
<p:sp><p:nvSpPr><p:nvPr><p:ph type="body"/></p:nvPr></p:nvSpPr>
<p:txBody><a:p><a:r><a:t>Speaker notes</a:t></a:r></a:p></p:txBody></p:sp>
</p:spTree></p:cSld>
</p:notes>`

var mediaBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3, 4}

func fixtureEntries() []struct{ name, content string } {
	return []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"ppt/presentation.xml", presentationXML},
		{"ppt/_rels/presentation.xml.rels", presentationRelsXML},
		{"ppt/slides/slide1.xml", slide1XML},
		{"ppt/slides/_rels/slide1.xml.rels", slide1RelsXML},
		{"ppt/notesSlides/notesSlide1.xml", notesSlide1XML},
		{"ppt/media/image1.png", string(mediaBytes)},
	}
}

func buildArchive(t *testing.T, entries []struct{ name, content string }) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.content)); err != nil {
			t.Fatalf("write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func openFixture(t *testing.T) (*Document, []byte) {
	t.Helper()
	data := buildArchive(t, fixtureEntries())
	doc, err := Open(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return doc, data
}

func readEntry(t *testing.T, archive []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("reopen archive: %v", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open %s: %v", name, err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			return data
		}
	}
	t.Fatalf("entry %s not found", name)
	return nil
}

func TestOpen_ParsesStructure(t *testing.T) {
	doc, _ := openFixture(t)

	if len(doc.Deck.Slides) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(doc.Deck.Slides))
	}
	slide := doc.Deck.Slides[0]
	if len(slide.Shapes) != 3 {
		t.Fatalf("expected 3 shapes, got %d", len(slide.Shapes))
	}

	frame := slide.Shapes[0].Frame
	if frame == nil || len(frame.Paragraphs) != 1 {
		t.Fatalf("expected shape 0 to have one paragraph")
	}
	runs := frame.Paragraphs[0].Runs
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, want := range []string{"Hello ", "world", "!"} {
		if runs[i].Text != want {
			t.Errorf("run %d: expected %q, got %q", i, want, runs[i].Text)
		}
	}
	if frame.Paragraphs[0].Text() != "Hello world!" {
		t.Errorf("paragraph text: got %q", frame.Paragraphs[0].Text())
	}

	empty := slide.Shapes[1].Frame.Paragraphs[0].Runs
	if len(empty) != 2 || empty[0].Text != "" || empty[1].Text != "tail" {
		t.Fatalf("unexpected runs in shape 1: %d", len(empty))
	}
	if !empty[0].Span.SelfClosed {
		t.Errorf("expected first run's text element to be recorded as self-closed")
	}

	table := slide.Shapes[2].Table
	if table == nil || len(table.Rows) != 2 || len(table.Rows[0]) != 2 {
		t.Fatalf("expected a 2x2 table")
	}
	if got := table.Rows[0][0].Paragraphs[0].Text(); got != "top left" {
		t.Errorf("cell (0,0): got %q", got)
	}
	if got := table.Rows[1][1].Paragraphs[0].Text(); got != "bottom right" {
		t.Errorf("cell (1,1): got %q", got)
	}

	if slide.Notes == nil {
		t.Fatalf("expected notes body")
	}
	if got := slide.Notes.Paragraphs[0].Text(); got != "Speaker notes" {
		t.Errorf("notes: got %q", got)
	}
}

func TestWriteTo_SplicesChangedRuns(t *testing.T) {
	doc, _ := openFixture(t)
	slide := doc.Deck.Slides[0]

	// First-run policy: the whole translation goes into run 0, the
	// rest are emptied.
	runs := slide.Shapes[0].Frame.Paragraphs[0].Runs
	runs[0].SetText("Bonjour monde !")
	runs[1].SetText("")
	runs[2].SetText("")

	cell := slide.Shapes[2].Table.Rows[0][0]
	cell.Paragraphs[0].Runs[0].SetText("en haut & à <gauche>")

	slide.Notes.Paragraphs[0].Runs[0].SetText("Notes de l'orateur")

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	reread, err := Open(bytes.NewReader(out.Bytes()), int64(out.Len()))
	if err != nil {
		t.Fatalf("reopen written archive: %v", err)
	}
	rslide := reread.Deck.Slides[0]

	para := rslide.Shapes[0].Frame.Paragraphs[0]
	if len(para.Runs) != 3 {
		t.Fatalf("expected run structure preserved, got %d runs", len(para.Runs))
	}
	if para.Runs[0].Text != "Bonjour monde !" || para.Runs[1].Text != "" || para.Runs[2].Text != "" {
		t.Errorf("unexpected run texts %q %q %q", para.Runs[0].Text, para.Runs[1].Text, para.Runs[2].Text)
	}

	if got := rslide.Shapes[2].Table.Rows[0][0].Paragraphs[0].Text(); got != "en haut & à <gauche>" {
		t.Errorf("cell text with escapes: got %q", got)
	}
	if got := rslide.Notes.Paragraphs[0].Text(); got != "Notes de l'orateur" {
		t.Errorf("notes text: got %q", got)
	}

	// Untouched runs keep their text.
	if got := rslide.Shapes[2].Table.Rows[1][1].Paragraphs[0].Text(); got != "bottom right" {
		t.Errorf("untouched cell changed: got %q", got)
	}

	// Formatting markup inside the rewritten part survives.
	slideXML := readEntry(t, out.Bytes(), "ppt/slides/slide1.xml")
	for _, marker := range []string{`<a:rPr b="1"/>`, `<a:rPr i="1"/>`} {
		if !bytes.Contains(slideXML, []byte(marker)) {
			t.Errorf("expected rewritten slide to retain %s", marker)
		}
	}

	// Non-text entries are bit-identical.
	if !bytes.Equal(readEntry(t, out.Bytes(), "ppt/media/image1.png"), mediaBytes) {
		t.Errorf("media entry changed")
	}
}

func TestWriteTo_ExpandsSelfClosedText(t *testing.T) {
	doc, _ := openFixture(t)
	para := doc.Deck.Slides[0].Shapes[1].Frame.Paragraphs[0]
	para.Runs[0].SetText("queue")
	para.Runs[1].SetText("")

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	reread, err := Open(bytes.NewReader(out.Bytes()), int64(out.Len()))
	if err != nil {
		t.Fatalf("reopen written archive: %v", err)
	}
	got := reread.Deck.Slides[0].Shapes[1].Frame.Paragraphs[0]
	if got.Runs[0].Text != "queue" || got.Runs[1].Text != "" {
		t.Errorf("unexpected run texts %q %q", got.Runs[0].Text, got.Runs[1].Text)
	}

	// The expanded element keeps the attributes of the self-closed one.
	slideXML := readEntry(t, out.Bytes(), "ppt/slides/slide1.xml")
	if !bytes.Contains(slideXML, []byte(`<a:t xml:space="preserve">queue</a:t>`)) {
		t.Errorf("expected expanded tag to retain its attributes, got:\n%s", slideXML)
	}
}

func TestWriteTo_NoChangesPreservesAllEntries(t *testing.T) {
	doc, _ := openFixture(t)

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	for _, e := range fixtureEntries() {
		if got := readEntry(t, out.Bytes(), e.name); !bytes.Equal(got, []byte(e.content)) {
			t.Errorf("entry %s changed without any run modification", e.name)
		}
	}
}

func TestOpen_MalformedTableGrid(t *testing.T) {
	entries := fixtureEntries()
	bad := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:graphicFrame><a:graphic><a:graphicData>
<a:tbl>
<a:tr><a:tc><a:txBody><a:p/></a:txBody></a:tc><a:tc><a:txBody><a:p/></a:txBody></a:tc></a:tr>
<a:tr><a:tc><a:txBody><a:p/></a:txBody></a:tc></a:tr>
</a:tbl>
</a:graphicData></a:graphic></p:graphicFrame>
</p:spTree></p:cSld>
</p:sld>`
	for i := range entries {
		if entries[i].name == "ppt/slides/slide1.xml" {
			entries[i].content = bad
		}
	}
	data := buildArchive(t, entries)

	_, err := Open(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, deck.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestOpen_MissingPresentationPart(t *testing.T) {
	data := buildArchive(t, []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
	})

	_, err := Open(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, deck.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestOpen_NotAZip(t *testing.T) {
	data := []byte("this is not a presentation")
	_, err := Open(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, deck.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
