package pdfutil

import (
	"bytes"
	"fmt"

	pdf "github.com/ledongthuc/pdf"
)

// PDFMagic is the header every PDF file starts with.
var PDFMagic = []byte("%PDF-")

// LooksLikePDF reports whether data starts with the PDF header.
func LooksLikePDF(data []byte) bool {
	return bytes.HasPrefix(data, PDFMagic)
}

// PageCount parses PDF bytes with ledongthuc/pdf and returns the number of
// pages. It is informational only; intake never rejects a file on its result.
func PageCount(data []byte) (pages int, err error) {
	// ledongthuc/pdf panics on some truncated xref tables
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("parse pdf: %v", r)
		}
	}()
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("new pdf reader: %w", err)
	}
	return doc.NumPage(), nil
}
