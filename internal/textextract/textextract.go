package textextract

import (
	"bytes"
	"os"

	"github.com/ledongthuc/pdf"
)

// Extractor turns a document on disk into plain text. Implementations never
// fail: an unreadable or malformed file yields the empty string, which
// downstream stages treat as corrupt content. Available reports whether a
// real text backend is behind the extractor; callers skip content-keyword
// checks when it is false rather than penalizing packages for it.
type Extractor interface {
	Text(path string) string
	Available() bool
}

// PDF extracts embedded text from PDF files.
type PDF struct{}

func NewPDF() PDF { return PDF{} }

func (PDF) Available() bool { return true }

func (PDF) Text(path string) (text string) {
	// The parser panics on some malformed files; treat those as unreadable.
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	content, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return ""
	}
	return buf.String()
}

// Naive is the no-backend fallback: it keeps the printable ASCII bytes of
// the raw file, which is enough for plain-text fixtures and smoke runs.
type Naive struct{}

func NewNaive() Naive { return Naive{} }

func (Naive) Available() bool { return false }

func (Naive) Text(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	kept := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b == '\t' || b == '\n' || b == '\r' || (b >= 0x20 && b <= 0x7e) {
			kept = append(kept, b)
		}
	}
	return string(kept)
}

// Texts extracts every path with the given extractor, keyed by the path
// itself.
func Texts(e Extractor, paths []string) map[string]string {
	texts := make(map[string]string, len(paths))
	for _, p := range paths {
		texts[p] = e.Text(p)
	}
	return texts
}
