package extract_test

import (
	"bytes"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/extract"
)

// buildPDF writes a minimal single-font PDF with one page per entry in
// pages. An empty entry produces a page with an empty content stream.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	offsets := []int{}

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// 1: catalog, 2: pages, 3: font, then page/content pairs.
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+i*2)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, text := range pages {
		contentRef := 5 + i*2
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentRef))

		stream := ""
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		}
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

var _ = Describe("Detect", func() {
	It("recognizes plain text by extension", func() {
		kind, err := extract.Detect("notes.TXT", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(kind).To(Equal(extract.KindText))
	})

	It("recognizes pdf by extension", func() {
		kind, err := extract.Detect("report.pdf", "application/octet-stream")
		Expect(err).NotTo(HaveOccurred())
		Expect(kind).To(Equal(extract.KindPDF))
	})

	It("falls back to the declared media type when there is no extension", func() {
		kind, err := extract.Detect("README", "text/plain; charset=utf-8")
		Expect(err).NotTo(HaveOccurred())
		Expect(kind).To(Equal(extract.KindText))
	})

	It("rejects docx even when a text media type is declared", func() {
		_, err := extract.Detect("report.docx", "text/plain")
		Expect(err).To(MatchError(extract.ErrUnsupportedFormat))
		Expect(err.Error()).To(ContainSubstring(".docx"))
	})

	It("rejects unknown media types without an extension", func() {
		_, err := extract.Detect("blob", "image/png")
		Expect(err).To(MatchError(extract.ErrUnsupportedFormat))
	})
})

var _ = Describe("Extract", func() {
	Context("plain text", func() {
		It("returns the decoded text", func() {
			text, err := extract.Extract([]byte("Alpha Bravo Charlie"), "a.txt", "text/plain")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Alpha Bravo Charlie"))
		})

		It("drops invalid utf-8 sequences instead of failing", func() {
			text, err := extract.Extract([]byte("ok\xff\xfe done"), "a.txt", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("ok done"))
		})

		It("strips a leading byte order mark", func() {
			Expect(extract.Text([]byte("\xef\xbb\xbfhello"))).To(Equal("hello"))
		})
	})

	Context("pdf", func() {
		It("extracts the text of each page", func() {
			text, err := extract.Extract(buildPDF("Hello PDF"), "doc.pdf", "application/pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(ContainSubstring("Hello PDF"))
		})

		It("skips empty pages and separates pages with a blank line", func() {
			text, err := extract.PDF(buildPDF("First page", "", "Third page"))
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(ContainSubstring("First page"))
			Expect(text).To(ContainSubstring("Third page"))
			Expect(text).To(ContainSubstring("\n\n"))
			Expect(text).NotTo(ContainSubstring("\n\n\n\n"))
		})

		It("fails on bytes that are not a pdf", func() {
			_, err := extract.Extract([]byte("definitely not a pdf"), "doc.pdf", "")
			Expect(err).To(MatchError(extract.ErrExtractionFailed))
		})

		It("fails on empty input", func() {
			_, err := extract.PDF(nil)
			Expect(err).To(MatchError(extract.ErrExtractionFailed))
		})
	})
})
