// Package docragcmder
package docragcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/docrag/cmd/docrag/ask"
	configcmder "github.com/papercomputeco/docrag/cmd/docrag/config"
	docscmder "github.com/papercomputeco/docrag/cmd/docrag/docs"
	ingestcmder "github.com/papercomputeco/docrag/cmd/docrag/ingest"
	reconcilecmder "github.com/papercomputeco/docrag/cmd/docrag/reconcile"
	servecmder "github.com/papercomputeco/docrag/cmd/docrag/serve"
	versioncmder "github.com/papercomputeco/docrag/cmd/version"
)

const docragLongDesc string = `docrag answers questions over your documents.

Upload text, markdown, PDF and DOCX files, then ask questions. Answers are
generated from the most relevant passages and cite their sources.

  docrag serve                  Run the HTTP API and MCP server
  docrag ingest <files...>      Ingest files from the command line
  docrag ask "<question>"       Ask a question
  docrag docs list              List ingested documents
  docrag reconcile              Repair documents missing vector entries`

const docragShortDesc string = "docrag - document question answering"

func NewDocragCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "docrag",
		Short:        docragShortDesc,
		Long:         docragLongDesc,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("config-dir", "", "Override the .docrag/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(docscmder.NewDocsCmd())
	cmd.AddCommand(reconcilecmder.NewReconcileCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
