package askcmder

import (
	"bytes"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/query"
)

var _ = Describe("ask command", func() {
	It("requires a question", func() {
		cmd := NewAskCmd()
		cmd.SetArgs([]string{})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		Expect(cmd.Execute()).To(HaveOccurred())
	})

	It("prints the answer followed by numbered sources", func() {
		var out bytes.Buffer
		c := &askCommander{out: &out}
		score := float32(0.25)
		c.printAnswer(&query.Answer{
			Answer: "Charlie.",
			Sources: []query.SourceInfo{{
				DocumentName: "abc.txt",
				ChunkIndex:   2,
				Score:        &score,
				Snippet:      "Alpha\nBravo   Charlie",
			}},
		})

		text := ansi.Strip(out.String())
		Expect(text).To(HavePrefix("Charlie.\n"))
		Expect(text).To(ContainSubstring("[1] abc.txt #2 (0.250)"))
		Expect(text).To(ContainSubstring("Alpha Bravo Charlie"))
	})

	It("omits the sources block when nothing was retrieved", func() {
		var out bytes.Buffer
		c := &askCommander{out: &out}
		c.printAnswer(&query.Answer{Answer: "nothing", Sources: []query.SourceInfo{}})
		Expect(ansi.Strip(out.String())).To(Equal("nothing\n"))
	})
})
