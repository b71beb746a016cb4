package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfText reads the text layer page by page. Text runs inside a page are
// joined by single spaces and pages by newlines.
func pdfText(data []byte) (text string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	n := rdr.NumPage()
	if n == 0 {
		return "", errors.New("pdf has no pages")
	}

	pages := make([]string, 0, n)

	for i := 1; i <= n; i++ {
		pg := rdr.Page(i)
		if pg.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		pages = append(pages, pageText(pg))
	}

	return strings.Join(pages, "\n"), nil
}

// wordGap is the TJ adjustment, in thousandths of an em, past which two
// pieces of one array are treated as separate words.
const wordGap = 200

// pageText walks the page's content stream in order and joins every shown
// text run with a single space.
func pageText(pg pdf.Page) string {
	encoders := make(map[string]pdf.TextEncoding)
	for _, name := range pg.Fonts() {
		encoders[name] = pg.Font(name).Encoder()
	}

	var enc pdf.TextEncoding
	decode := func(raw string) string {
		if enc == nil {
			return raw
		}
		return enc.Decode(raw)
	}

	var parts []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	pdf.Interpret(pg.V.Key("Contents"), func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "Tf":
			if n == 2 {
				enc = encoders[args[0].Name()]
			}
		case "Tj", "'", "\"":
			if n > 0 {
				add(decode(args[n-1].RawString()))
			}
		case "TJ":
			if n != 1 {
				return
			}
			var run strings.Builder
			arr := args[0]
			for i := 0; i < arr.Len(); i++ {
				v := arr.Index(i)
				switch v.Kind() {
				case pdf.String:
					run.WriteString(decode(v.RawString()))
				case pdf.Integer, pdf.Real:
					if v.Float64() <= -wordGap {
						run.WriteByte(' ')
					}
				}
			}
			add(strings.Join(strings.Fields(run.String()), " "))
		}
	})

	return strings.Join(parts, " ")
}

func isPDF(mimeType, name string) bool {
	return strings.EqualFold(mimeType, "application/pdf") || strings.HasSuffix(strings.ToLower(name), ".pdf")
}
