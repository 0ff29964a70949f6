// Package pptx reads and writes PowerPoint archives. Parsing records
// the byte span of every run's text inside its XML part; writing
// splices translated text into those spans and copies everything else
// through untouched, so formatting survives byte-for-byte.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/deck"
)

const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
	relNS            = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	notesRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
)

// Document couples a parsed deck with its source archive so the deck
// can be written back with every unmodified entry copied verbatim.
type Document struct {
	Deck *deck.Deck

	src   *zip.Reader
	parts map[string][]byte // raw XML of parsed slide/notes parts
}

// Open parses a .pptx archive into a Document.
func Open(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: open archive: %v", deck.ErrMalformed, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	doc := &Document{
		Deck:  &deck.Deck{},
		src:   zr,
		parts: make(map[string][]byte),
	}

	presRaw, err := readPart(files, presentationPart)
	if err != nil {
		return nil, err
	}
	rels, err := readRels(files, presentationRels)
	if err != nil {
		return nil, err
	}

	slideIDs, err := slideOrder(presRaw)
	if err != nil {
		return nil, err
	}

	for _, rid := range slideIDs {
		rel, ok := rels[rid]
		if !ok {
			return nil, fmt.Errorf("%w: slide relationship %s not found", deck.ErrMalformed, rid)
		}
		part := resolveTarget(presentationPart, rel.Target)

		raw, err := readPart(files, part)
		if err != nil {
			return nil, err
		}
		content, err := parseTextPart(part, raw)
		if err != nil {
			return nil, err
		}
		doc.parts[part] = raw

		slide := &deck.Slide{
			Part:   part,
			Shapes: content.shapes,
		}

		notesPart, err := notesPartFor(files, part)
		if err != nil {
			return nil, err
		}
		if notesPart != "" {
			notesRaw, err := readPart(files, notesPart)
			if err != nil {
				return nil, err
			}
			notesContent, err := parseTextPart(notesPart, notesRaw)
			if err != nil {
				return nil, err
			}
			if notesContent.bodyFrame != nil {
				doc.parts[notesPart] = notesRaw
				slide.Notes = notesContent.bodyFrame
				slide.NotesPart = notesPart
			}
		}

		doc.Deck.Slides = append(doc.Deck.Slides, slide)
	}

	return doc, nil
}

func readPart(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing part %s", deck.ErrMalformed, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

func readRels(files map[string]*zip.File, name string) (map[string]relationship, error) {
	raw, err := readPart(files, name)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Rels []relationship `xml:"Relationship"`
	}
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", deck.ErrMalformed, name, err)
	}
	rels := make(map[string]relationship, len(doc.Rels))
	for _, r := range doc.Rels {
		rels[r.ID] = r
	}
	return rels, nil
}

// notesPartFor resolves the notes part of a slide via the slide's
// relationships, returning "" when the slide has no notes.
func notesPartFor(files map[string]*zip.File, slidePart string) (string, error) {
	relsName := path.Join(path.Dir(slidePart), "_rels", path.Base(slidePart)+".rels")
	if _, ok := files[relsName]; !ok {
		return "", nil
	}
	rels, err := readRels(files, relsName)
	if err != nil {
		return "", err
	}
	for _, r := range rels {
		if r.Type == notesRelType {
			return resolveTarget(slidePart, r.Target), nil
		}
	}
	return "", nil
}

// resolveTarget resolves a relationship target against the part that
// declared it. Targets are relative ("slides/slide1.xml",
// "../notesSlides/notesSlide1.xml") unless they begin with "/".
func resolveTarget(basePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(path.Dir(basePart), target))
}

// slideOrder returns the slide relationship IDs in presentation order
// from the sldIdLst of ppt/presentation.xml.
func slideOrder(raw []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charset.NewReaderLabel

	var ids []string
	inList := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", deck.ErrMalformed, presentationPart, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sldIdLst":
				inList = true
			case "sldId":
				if !inList {
					continue
				}
				for _, a := range t.Attr {
					if a.Name.Local == "id" && a.Name.Space == relNS {
						ids = append(ids, a.Value)
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "sldIdLst" {
				inList = false
			}
		}
	}
	return ids, nil
}

// partContent is what a single slide or notes part yields.
type partContent struct {
	shapes []*deck.Shape

	// bodyFrame is the text frame of the body placeholder, used to
	// pick the speaker-notes text out of a notes part.
	bodyFrame *deck.TextFrame
}

type shapeCtx struct {
	shape *deck.Shape
	body  bool
}

// parseTextPart walks one slide or notes XML part, building shapes,
// tables and runs while recording every run's text byte span.
//
// Element names are matched by local name: shapes (sp) and graphic
// frames carry text bodies (txBody) of paragraphs (p) and runs (r),
// each run holding one text element (t). Text inside fields (fld,
// slide numbers and the like) has no enclosing run and is skipped.
func parseTextPart(name string, raw []byte) (*partContent, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charset.NewReaderLabel

	content := &partContent{}

	var (
		shapeStack []*shapeCtx
		table      *deck.Table
		cell       *deck.TextFrame
		frame      *deck.TextFrame
		para       *deck.Paragraph
		run        *deck.Run
		inRun      bool
		inText     bool
		textStart  int64
		tagStart   int64
		text       strings.Builder
		last       int64
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", deck.ErrMalformed, name, err)
		}
		off := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp", "graphicFrame":
				sc := &shapeCtx{shape: &deck.Shape{}}
				content.shapes = append(content.shapes, sc.shape)
				shapeStack = append(shapeStack, sc)
			case "ph":
				if len(shapeStack) > 0 {
					for _, a := range t.Attr {
						if a.Name.Local == "type" && a.Value == "body" {
							shapeStack[len(shapeStack)-1].body = true
						}
					}
				}
			case "tbl":
				if len(shapeStack) == 0 {
					return nil, fmt.Errorf("%w: %s: table outside graphic frame", deck.ErrMalformed, name)
				}
				table = &deck.Table{}
				shapeStack[len(shapeStack)-1].shape.Table = table
			case "tr":
				if table != nil {
					table.Rows = append(table.Rows, []*deck.TextFrame{})
				}
			case "tc":
				if table != nil && len(table.Rows) > 0 {
					cell = &deck.TextFrame{}
					i := len(table.Rows) - 1
					table.Rows[i] = append(table.Rows[i], cell)
				}
			case "txBody":
				switch {
				case cell != nil:
					frame = cell
				case len(shapeStack) > 0:
					frame = &deck.TextFrame{}
					shapeStack[len(shapeStack)-1].shape.Frame = frame
				}
			case "p":
				if frame != nil {
					para = &deck.Paragraph{}
					frame.Paragraphs = append(frame.Paragraphs, para)
				}
			case "r":
				if para != nil {
					run = &deck.Run{}
					para.Runs = append(para.Runs, run)
					inRun = true
				}
			case "t":
				if inRun && run != nil {
					inText = true
					textStart = off
					tagStart = last
					text.Reset()
				}
			}

		case xml.CharData:
			if inText {
				text.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				if inText {
					run.Text = text.String()
					if last == textStart && bytes.HasSuffix(raw[tagStart:textStart], []byte("/>")) {
						run.Span = deck.Span{TagStart: tagStart, End: textStart, SelfClosed: true}
					} else {
						run.Span = deck.Span{Start: textStart, End: last, TagStart: tagStart}
					}
					inText = false
				}
			case "r":
				inRun = false
				run = nil
			case "p":
				para = nil
			case "txBody":
				frame = nil
			case "tc":
				cell = nil
			case "tbl":
				if table != nil {
					if err := checkGrid(table); err != nil {
						return nil, fmt.Errorf("%s: %w", name, err)
					}
					table = nil
				}
			case "sp", "graphicFrame":
				if n := len(shapeStack); n > 0 {
					sc := shapeStack[n-1]
					shapeStack = shapeStack[:n-1]
					if sc.body && sc.shape.Frame != nil {
						content.bodyFrame = sc.shape.Frame
					}
				}
			}
		}

		last = off
	}

	return content, nil
}

// checkGrid rejects tables whose rows disagree on cell count.
func checkGrid(t *deck.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	want := len(t.Rows[0])
	for i, row := range t.Rows {
		if len(row) != want {
			return fmt.Errorf("%w: table row %d has %d cells, row 0 has %d", deck.ErrMalformed, i, len(row), want)
		}
	}
	return nil
}
