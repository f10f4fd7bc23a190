package reconcilecmder

import (
	"bytes"
	"errors"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/ingest"
)

var _ = Describe("reconcile command", func() {
	It("summarizes the report", func() {
		var out bytes.Buffer
		printReport(&out, &ingest.ReconcileReport{
			Scanned:  3,
			Healthy:  1,
			Repaired: []string{"d2"},
			Failures: []*ingest.FileError{{Filename: "c.txt", State: ingest.StateEmbedded, Err: errors.New("boom")}},
		})

		text := ansi.Strip(out.String())
		Expect(text).To(ContainSubstring("scanned 3  healthy 1  repaired 1  failed 1"))
		Expect(text).To(ContainSubstring("d2"))
		Expect(text).To(ContainSubstring("c.txt boom"))
	})

	It("runs against an empty catalog", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		cmd := NewReconcileCmd()
		cmd.Flags().String("config-dir", GinkgoT().TempDir(), "")
		cmd.Flags().Bool("debug", false, "")
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--vector-store-provider", "memory"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(ansi.Strip(out.String())).To(ContainSubstring("scanned 0"))
	})
})
