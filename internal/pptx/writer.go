package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/deck"
)

// WriteTo serializes the document back to a .pptx archive. Entries
// whose runs were not modified are copied through in their original
// compressed form; only parts containing modified runs are rewritten,
// and within them only the recorded text spans change.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	changed := d.changedRuns()

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	for _, f := range d.src.File {
		runs := changed[f.Name]
		if len(runs) == 0 {
			if err := copyRaw(zw, f); err != nil {
				return cw.n, fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}

		rewritten, err := splice(d.parts[f.Name], runs)
		if err != nil {
			return cw.n, fmt.Errorf("rewrite %s: %w", f.Name, err)
		}
		hdr := f.FileHeader
		fw, err := zw.CreateHeader(&hdr)
		if err != nil {
			return cw.n, fmt.Errorf("create %s: %w", f.Name, err)
		}
		if _, err := fw.Write(rewritten); err != nil {
			return cw.n, fmt.Errorf("write %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("close archive: %w", err)
	}
	return cw.n, nil
}

// changedRuns groups the deck's dirty runs by the archive part that
// owns them.
func (d *Document) changedRuns() map[string][]*deck.Run {
	changed := make(map[string][]*deck.Run)
	collect := func(part string, frame *deck.TextFrame) {
		for _, p := range frame.Paragraphs {
			for _, r := range p.Runs {
				if r.Dirty() {
					changed[part] = append(changed[part], r)
				}
			}
		}
	}

	for _, slide := range d.Deck.Slides {
		for _, shape := range slide.Shapes {
			if shape.Frame != nil {
				collect(slide.Part, shape.Frame)
			}
			if shape.Table != nil {
				for _, row := range shape.Table.Rows {
					for _, cellFrame := range row {
						collect(slide.Part, cellFrame)
					}
				}
			}
		}
		if slide.Notes != nil {
			collect(slide.NotesPart, slide.Notes)
		}
	}
	return changed
}

func copyRaw(zw *zip.Writer, f *zip.File) error {
	rc, err := f.OpenRaw()
	if err != nil {
		return err
	}
	hdr := f.FileHeader
	fw, err := zw.CreateRaw(&hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(fw, rc)
	return err
}

// splice replaces the recorded text spans of the given runs inside
// raw, leaving every other byte of the part untouched.
func splice(raw []byte, runs []*deck.Run) ([]byte, error) {
	type repl struct {
		start, end int64
		data       []byte
	}

	repls := make([]repl, 0, len(runs))
	for _, r := range runs {
		span := r.Span
		if span.SelfClosed {
			data, err := expandTag(raw[span.TagStart:span.End], r.Text)
			if err != nil {
				return nil, err
			}
			repls = append(repls, repl{start: span.TagStart, end: span.End, data: data})
			continue
		}
		repls = append(repls, repl{start: span.Start, end: span.End, data: escapeText(r.Text)})
	}
	sort.Slice(repls, func(i, j int) bool { return repls[i].start < repls[j].start })

	var out bytes.Buffer
	out.Grow(len(raw))
	var pos int64
	for _, rp := range repls {
		if rp.start < pos || rp.end > int64(len(raw)) {
			return nil, fmt.Errorf("%w: text span %d-%d out of range", deck.ErrMalformed, rp.start, rp.end)
		}
		out.Write(raw[pos:rp.start])
		out.Write(rp.data)
		pos = rp.end
	}
	out.Write(raw[pos:])
	return out.Bytes(), nil
}

// expandTag turns a self-closed text element ("<a:t/>",
// `<a:t xml:space="preserve"/>`) into an open element holding the
// given text, keeping the attribute list intact.
func expandTag(tag []byte, text string) ([]byte, error) {
	if len(tag) < 3 || tag[0] != '<' || !bytes.HasSuffix(tag, []byte("/>")) {
		return nil, fmt.Errorf("%w: unexpected text tag %q", deck.ErrMalformed, tag)
	}
	inner := bytes.TrimRight(tag[1:len(tag)-2], " \t")
	end := 0
	for end < len(inner) && inner[end] != ' ' && inner[end] != '\t' {
		end++
	}
	name := inner[:end]

	var out bytes.Buffer
	out.WriteByte('<')
	out.Write(inner)
	out.WriteByte('>')
	out.Write(escapeText(text))
	out.WriteString("</")
	out.Write(name)
	out.WriteByte('>')
	return out.Bytes(), nil
}

func escapeText(s string) []byte {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.Bytes()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
