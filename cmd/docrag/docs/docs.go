// Package docscmder provides the docs command for listing and deleting an
// owner's documents.
package docscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docrag/cmd/docrag/cmdutil"
	"github.com/papercomputeco/docrag/pkg/catalog"
	"github.com/papercomputeco/docrag/pkg/cliui"
	"github.com/papercomputeco/docrag/pkg/config"
	"github.com/papercomputeco/docrag/pkg/pipeline"
)

const docsLongDesc string = `Manage ingested documents.

  docrag docs list            List the owner's documents, newest first
  docrag docs delete <id>     Delete a document and its vectors`

const docsShortDesc string = "Manage ingested documents"

func NewDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: docsShortDesc,
		Long:  docsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

type listCommander struct {
	limit      int
	offset     int
	jsonOutput bool
	out        io.Writer
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmdutil.WithPipeline(cmd, cmdutil.PipelineKeys, nil, cmder.run)
		},
	}

	cmdutil.AddFlags(cmd, cmdutil.PipelineKeys)
	cmd.Flags().IntVar(&cmder.limit, "limit", catalog.DefaultPageLimit, "Maximum number of documents to list")
	cmd.Flags().IntVar(&cmder.offset, "offset", 0, "Number of documents to skip")
	cmd.Flags().BoolVar(&cmder.jsonOutput, "json", false, "Print documents as JSON")

	return cmd
}

func (c *listCommander) run(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) error {
	docs, err := p.Catalog.ListDocuments(ctx, cfg.API.DefaultOwner, catalog.Page{Limit: c.limit, Offset: c.offset})
	if err != nil {
		return err
	}

	if c.jsonOutput {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	printDocuments(c.out, docs)
	return nil
}

func printDocuments(w io.Writer, docs []*catalog.Document) {
	if len(docs) == 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("No documents."))
		return
	}

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		status := cliui.SuccessMark
		if !doc.Ready() {
			status = cliui.FailMark
		}
		rows = append(rows, []string{
			status,
			doc.ID,
			cliui.Truncate(doc.Filename, 40),
			strconv.Itoa(doc.ChunkCount),
			humanSize(doc.SizeBytes),
			doc.CreatedAt.Local().Format(time.DateTime),
		})
	}
	cliui.Table(w, []string{"", "ID", "FILENAME", "CHUNKS", "SIZE", "CREATED"}, rows)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return cmdutil.WithPipeline(cmd, cmdutil.PipelineKeys, nil, func(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) error {
				deleted, err := p.Ingest.Delete(ctx, args[0], cfg.API.DefaultOwner)
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("document %s not found", args[0])
				}
				fmt.Fprintf(out, "  %s Deleted %s\n", cliui.SuccessMark, args[0])
				return nil
			})
		},
	}

	cmdutil.AddFlags(cmd, cmdutil.PipelineKeys)

	return cmd
}
