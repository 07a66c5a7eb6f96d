// Package testdocs builds small, well-formed documents in memory for tests.
package testdocs

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"strings"
)

// File is one entry of a ZIP container.
type File struct {
	Name string
	Body string
}

// Zip returns a ZIP archive holding files in the given order.
func Zip(files ...File) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.Create(f.Name)
		if err != nil {
			panic(err)
		}
		if _, err := fw.Write([]byte(f.Body)); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// DOCX returns a Word package with one paragraph per argument.
func DOCX(paragraphs ...string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, html.EscapeString(p))
	}
	return Zip(
		File{Name: "[Content_Types].xml", Body: contentTypes},
		File{Name: "word/document.xml", Body: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() +
			`</w:body></w:document>`},
	)
}

// SlideXML returns the XML of a slide holding one text box per run.
func SlideXML(runs ...string) string {
	var shapes strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&shapes, `<p:sp><p:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, html.EscapeString(r))
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
		`<p:cSld><p:spTree>` + shapes.String() + `</p:spTree></p:cSld></p:sld>`
}

// PPTX returns a presentation whose slide N (1-based) has the XML slides[N-1].
// Entries are written in reverse order so readers cannot rely on ZIP order.
func PPTX(slides ...string) []byte {
	files := []File{
		{Name: "[Content_Types].xml", Body: contentTypes},
		{Name: "ppt/presentation.xml", Body: `<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`},
	}
	for i := len(slides) - 1; i >= 0; i-- {
		files = append(files,
			File{Name: fmt.Sprintf("ppt/slides/slide%d.xml", i+1), Body: slides[i]},
			File{Name: fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), Body: `<Relationships/>`},
		)
	}
	return Zip(files...)
}

// PDF returns a PDF with one page per argument, each showing its text in
// Helvetica.
func PDF(pages ...string) []byte {
	return buildPDF("", pages)
}

// EncryptedPDF returns a one-page PDF whose trailer declares the standard
// security handler at version v and revision r. The owner and user hashes
// are arbitrary, so no password, including the empty one, opens it.
func EncryptedPDF(v, r int) []byte {
	hash := strings.Repeat("5a", 32)
	trailer := fmt.Sprintf(" /Encrypt << /Filter /Standard /V %d /R %d /Length 40 /O <%s> /U <%s> /P -44 >>"+
		" /ID [<00112233445566778899aabbccddeeff> <00112233445566778899aabbccddeeff>]", v, r, hash, hash)
	return buildPDF(trailer, []string{"Sealed exam answers"})
}

func buildPDF(trailerExtra string, pages []string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled in below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	kids := make([]string, 0, len(pages))
	for i, text := range pages {
		pageNum := 4 + 2*i
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))

		content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", escapePDFString(text))
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageNum+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, trailerExtra, xref)

	return buf.Bytes()
}

// PNG returns a small encoded PNG image.
func PNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`
