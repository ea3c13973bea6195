package ingest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/bookstorectl/internal/ingest"
)

const samplePDF = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
4 0 obj
<<
/Title (Dune \(Deluxe\))
/Author <FEFF004600720061006E006B>
>>
endobj
trailer
<< /Root 1 0 R /Info 4 0 R >>
%%EOF`

func writePDF(t *testing.T, body string) *ingest.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.pdf")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	src, err := ingest.Resolve(path)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestReadDocInfo(t *testing.T) {
	info, err := ingest.ReadDocInfo(writePDF(t, samplePDF))
	if err != nil {
		t.Fatalf("ReadDocInfo: %v", err)
	}
	if info.Title != "Dune (Deluxe)" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.Author != "Frank" {
		t.Errorf("Author = %q", info.Author)
	}
}

func TestReadDocInfo_InfoInTrailer(t *testing.T) {
	body := "%PDF-1.4\n" + strings.Repeat("% filler line\n", 1500) + "<< /Title (Tail Title) >>\n%%EOF"
	info, err := ingest.ReadDocInfo(writePDF(t, body))
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "Tail Title" {
		t.Errorf("Title = %q, want Tail Title", info.Title)
	}
}

func TestReadDocInfo_NonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("/Title (nope)"), 0600); err != nil {
		t.Fatal(err)
	}
	src, err := ingest.Resolve(path)
	if err != nil {
		t.Fatal(err)
	}
	info, err := ingest.ReadDocInfo(src)
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "" {
		t.Errorf("Title = %q, want empty for non-PDF", info.Title)
	}
}
