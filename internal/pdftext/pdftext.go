// Package pdftext turns PDF bytes into plain text.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"legaldash/internal/common/logger"

	"github.com/ledongthuc/pdf"
)

// pageSource is the part of a parsed document the extractor reads.
type pageSource interface {
	NumPage() int
	PageText(num int) (string, error)
}

type opener func(data []byte) (pageSource, error)

// Extractor concatenates the plain text of every page in page order. It
// never returns an error: unreadable input yields "".
type Extractor struct {
	open   opener
	logger logger.Logger
}

func New(log logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Extractor{
		open:   openPDF,
		logger: log.With(map[string]interface{}{"component": "pdftext"}),
	}
}

// Extract returns the document text, or "" when the bytes cannot be parsed.
func (e *Extractor) Extract(data []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("pdf parser panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			text = ""
		}
	}()

	if len(data) == 0 {
		return ""
	}

	doc, err := e.open(data)
	if err != nil {
		e.logger.Error("error extracting text from PDF", map[string]interface{}{"error": err.Error()})
		return ""
	}

	var sb strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		pageText, err := doc.PageText(i)
		if err != nil {
			e.logger.Error("error extracting text from PDF", map[string]interface{}{
				"page":  i,
				"error": err.Error(),
			})
			return ""
		}
		sb.WriteString(pageText)
	}
	return sb.String()
}

type ledongthucDoc struct {
	r *pdf.Reader
}

func openPDF(data []byte) (pageSource, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return ledongthucDoc{r: r}, nil
}

func (d ledongthucDoc) NumPage() int {
	return d.r.NumPage()
}

// PageText returns "" for pages without a page object.
func (d ledongthucDoc) PageText(num int) (string, error) {
	p := d.r.Page(num)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}
