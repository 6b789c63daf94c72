package extract

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/ledongthuc/pdf"
)

// buildPDF writes a minimal PDF with one page per content stream. Every page
// uses Helvetica as /F1 and the xref offsets are computed from the output.
func buildPDF(t *testing.T, streams ...string) []byte {
	t.Helper()
	const fontObj = 3
	firstPage := 4
	total := fontObj + 2*len(streams)

	objects := make([]string, total+1)
	kids := make([]byte, 0)
	for i := range streams {
		kids = fmt.Appendf(kids, "%d 0 R ", firstPage+2*i)
	}
	objects[1] = "<< /Type /Catalog /Pages 2 0 R >>"
	objects[2] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(streams))
	objects[fontObj] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"
	for i, stream := range streams {
		pageObj := firstPage + 2*i
		contentObj := pageObj + 1
		objects[pageObj] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, contentObj)
		objects[contentObj] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, total+1)
	for n := 1; n <= total; n++ {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, objects[n])
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", total+1)
	for n := 1; n <= total; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)
	return buf.Bytes()
}

// Lines are advanced with Td only; the text matrix is never reset with Tm.
const tdPage = `BT
/F1 12 Tf
72 720 Td
(john doe) Tj
0 -16 Td
(john@x.com, Dhaka) Tj
0 -16 Td
(EDUCATION) Tj
0 -16 Td
(bsc in computer science) Tj
0 -16 Td
(dhaka university 2019) Tj
ET`

const tStarPage = `BT
/F1 12 Tf
14 TL
72 720 Td
(SKILLS) Tj
T*
(go, sql) Tj
T*
[(acme) -3000 (corp)] TJ
ET`

func TestExtract_TdPositionedLines(t *testing.T) {
	doc, err := Extract(context.Background(), buildPDF(t, tdPage))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	wantRaw := "john doe\njohn@x.com, Dhaka\nEDUCATION\nbsc in computer science\ndhaka university 2019"
	if doc.RawText != wantRaw {
		t.Fatalf("raw text = %q, want %q", doc.RawText, wantRaw)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(doc.Sections), doc.Sections)
	}
	edu := doc.Sections[1]
	if edu.Heading != "EDUCATION" {
		t.Fatalf("heading = %q, want EDUCATION", edu.Heading)
	}
	wantEdu := []string{"bsc in computer science", "dhaka university 2019"}
	if !reflect.DeepEqual(edu.Content, wantEdu) {
		t.Fatalf("education content = %v, want %v", edu.Content, wantEdu)
	}
	if !reflect.DeepEqual(doc.ContactInfo.Emails, []string{"john@x.com"}) {
		t.Fatalf("emails = %v", doc.ContactInfo.Emails)
	}
	if len(doc.ContactInfo.Location) == 0 {
		t.Fatal("expected a location match on the contact line")
	}
}

func TestExtract_TStarLinesAndKernedWords(t *testing.T) {
	doc, err := Extract(context.Background(), buildPDF(t, tStarPage))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := []Section{{Heading: "SKILLS", Content: []string{"go, sql", "acme corp"}}}
	if !reflect.DeepEqual(doc.Sections, want) {
		t.Fatalf("sections = %+v, want %+v", doc.Sections, want)
	}
}

func TestExtract_MultiPageKeepsPageOrder(t *testing.T) {
	doc, err := Extract(context.Background(), buildPDF(t, tdPage, tStarPage))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	wantRaw := "john doe\njohn@x.com, Dhaka\nEDUCATION\nbsc in computer science\ndhaka university 2019\nSKILLS\ngo, sql\nacme corp"
	if doc.RawText != wantRaw {
		t.Fatalf("raw text = %q, want %q", doc.RawText, wantRaw)
	}
	var headings []string
	for _, s := range doc.Sections {
		headings = append(headings, s.Heading)
	}
	if !reflect.DeepEqual(headings, []string{"", "EDUCATION", "SKILLS"}) {
		t.Fatalf("headings = %q", headings)
	}
}

func TestPageText_OrdersGlyphsAndSpacesGaps(t *testing.T) {
	glyph := func(s string, x, y float64) pdf.Text {
		return pdf.Text{Font: "Helvetica", FontSize: 10, X: x, Y: y, W: 5, S: s}
	}
	// Emitted out of order: second line first, and a word gap on the first.
	texts := []pdf.Text{
		glyph("c", 10, 680),
		glyph("d", 15, 680.4),
		glyph("\n", 20, 680),
		glyph("b", 40, 700),
		glyph("a", 10, 700),
		glyph("x", 15, 700),
	}
	if got, want := pageText(texts), "ax b\ncd\n"; got != want {
		t.Fatalf("pageText = %q, want %q", got, want)
	}
}

func TestPageText_Empty(t *testing.T) {
	if got := pageText(nil); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}
