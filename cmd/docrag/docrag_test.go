package docragcmder_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	docragcmder "github.com/papercomputeco/docrag/cmd/docrag"
)

var _ = Describe("NewDocragCmd", func() {
	It("wires every subcommand", func() {
		cmd := docragcmder.NewDocragCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "ingest", "ask", "docs", "reconcile", "config", "version"))
	})

	It("exposes the global flags", func() {
		cmd := docragcmder.NewDocragCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("prints the version as JSON", func() {
		cmd := docragcmder.NewDocragCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version", "--json"})
		Expect(cmd.Execute()).To(Succeed())

		var info map[string]string
		Expect(json.Unmarshal(out.Bytes(), &info)).To(Succeed())
		Expect(info).To(HaveKeyWithValue("version", "dev"))
	})

	It("ingests a file and answers a question about it", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		GinkgoT().Setenv("ANTHROPIC_API_KEY", "")
		GinkgoT().Setenv("GEMINI_API_KEY", "")
		GinkgoT().Setenv("GOOGLE_API_KEY", "")
		configDir := GinkgoT().TempDir()
		file := configDir + "/abc.txt"
		Expect(writeFile(file, "Alpha Bravo Charlie")).To(Succeed())

		ingest := docragcmder.NewDocragCmd()
		ingest.SetOut(&bytes.Buffer{})
		ingest.SetArgs([]string{"ingest", "--config-dir", configDir, "--vector-store-provider", "sqlite", "--owner", "alice", file})
		Expect(ingest.Execute()).To(Succeed())

		ask := docragcmder.NewDocragCmd()
		var out bytes.Buffer
		ask.SetOut(&out)
		ask.SetArgs([]string{"ask", "--config-dir", configDir, "--vector-store-provider", "sqlite", "--owner", "alice", "--json", "Alpha Bravo Charlie"})
		Expect(ask.Execute()).To(Succeed())

		var answer struct {
			Sources []struct {
				DocumentName string `json:"document_name"`
			} `json:"sources"`
		}
		Expect(json.Unmarshal(out.Bytes(), &answer)).To(Succeed())
		Expect(answer.Sources).To(HaveLen(1))
		Expect(answer.Sources[0].DocumentName).To(Equal("abc.txt"))
	})
})
