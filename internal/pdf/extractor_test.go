package pdfutil

import "testing"

func TestLooksLikePDF(t *testing.T) {
	if !LooksLikePDF([]byte("%PDF-1.7\n...")) {
		t.Fatalf("expected PDF header to be recognised")
	}
	if LooksLikePDF([]byte("\x89PNG")) {
		t.Fatalf("expected PNG header to be rejected")
	}
}

func TestPageCountRejectsGarbage(t *testing.T) {
	pages, err := PageCount([]byte("definitely not a pdf"))
	if err == nil {
		t.Fatalf("expected an error for non-PDF bytes")
	}
	if pages != 0 {
		t.Fatalf("expected zero pages, got %d", pages)
	}
}
