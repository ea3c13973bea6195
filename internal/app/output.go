package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/blackwell-systems/bookstorectl/internal/catalog"
)

func ok(format string, a ...interface{}) {
	fmt.Printf("%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, a...))
}

func warn(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.YellowString("⚠"), fmt.Sprintf(format, a...))
}

func header(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, color.CyanString(fmt.Sprintf(format, a...)))
}

// printBook writes a short description of b.
func printBook(w io.Writer, b catalog.Book) {
	fmt.Fprintf(w, "  %s %s\n", color.CyanString("ID:"), b.ID)
	fmt.Fprintf(w, "  %s %s\n", color.CyanString("Title:"), b.Title)
	fmt.Fprintf(w, "  %s %s\n", color.CyanString("Category:"), b.CategoryName())
	if b.ObjectRef != "" && b.ObjectRef != b.ID {
		fmt.Fprintf(w, "  %s %s\n", color.CyanString("Object:"), b.ObjectRef)
	}
	if b.Format != "" {
		fmt.Fprintf(w, "  %s %s\n", color.CyanString("Format:"), b.Format)
	}
	if b.Size > 0 {
		fmt.Fprintf(w, "  %s %s\n", color.CyanString("Size:"), humanBytes(b.Size))
	}
}

// confirmByTyping asks for the book ID and reports whether it was typed back
// exactly.
func confirmByTyping(in io.Reader, out io.Writer, id string) bool {
	fmt.Fprint(out, "Type the book ID to confirm deletion: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == id
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
