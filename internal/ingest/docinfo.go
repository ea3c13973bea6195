package ingest

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf16"
)

// DocInfo is the subset of a PDF Info dictionary used to prefill uploads.
type DocInfo struct {
	Title  string
	Author string
}

// infoWindow is how much of the head and tail of a PDF is scanned. Info
// dictionaries sit near the start or in the trailer.
const infoWindow = 8 << 10

var (
	literalField = map[string]*regexp.Regexp{
		"Title":  regexp.MustCompile(`/Title\s*\(((?:\\.|[^\\)])*)\)`),
		"Author": regexp.MustCompile(`/Author\s*\(((?:\\.|[^\\)])*)\)`),
	}
	hexField = map[string]*regexp.Regexp{
		"Title":  regexp.MustCompile(`/Title\s*<([0-9A-Fa-f]+)>`),
		"Author": regexp.MustCompile(`/Author\s*<([0-9A-Fa-f]+)>`),
	}
	pdfEscapes = strings.NewReplacer(`\n`, "\n", `\r`, "\r", `\t`, "\t", `\(`, "(", `\)`, ")", `\\`, `\`)
)

// ReadDocInfo extracts title and author from a local PDF. It is best effort:
// compressed or encrypted Info dictionaries yield empty fields, not errors.
// Non-PDF sources return an empty DocInfo.
func ReadDocInfo(src *Source) (*DocInfo, error) {
	if src == nil || src.Path == "" || src.ContentType != "application/pdf" {
		return &DocInfo{}, nil
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, infoWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	text := head[:n]
	if src.Size > infoWindow {
		tail := make([]byte, infoWindow)
		if m, err := f.ReadAt(tail, src.Size-infoWindow); err == nil || err == io.EOF {
			text = append(text, tail[:m]...)
		}
	}
	return &DocInfo{
		Title:  infoField(text, "Title"),
		Author: infoField(text, "Author"),
	}, nil
}

func infoField(text []byte, name string) string {
	if m := literalField[name].FindSubmatch(text); m != nil {
		return strings.TrimSpace(pdfEscapes.Replace(string(m[1])))
	}
	if m := hexField[name].FindSubmatch(text); m != nil {
		return strings.TrimSpace(decodeUTF16Hex(string(m[1])))
	}
	return ""
}

// decodeUTF16Hex decodes a PDF hex string, treating a FEFF prefix as a
// UTF-16BE byte order mark.
func decodeUTF16Hex(s string) string {
	if len(s)%2 != 0 {
		return ""
	}
	raw := make([]byte, len(s)/2)
	for i := range raw {
		raw[i] = nibble(s[2*i])<<4 | nibble(s[2*i+1])
	}
	if !bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) {
		return string(raw)
	}
	raw = raw[2:]
	if len(raw)%2 != 0 {
		return ""
	}
	u := make([]uint16, len(raw)/2)
	for i := range u {
		u[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return string(utf16.Decode(u))
}

func nibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
