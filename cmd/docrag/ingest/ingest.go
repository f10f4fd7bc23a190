// Package ingestcmder provides the ingest command, which runs files from
// the local filesystem through the ingestion pipeline.
package ingestcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docrag/cmd/docrag/cmdutil"
	"github.com/papercomputeco/docrag/pkg/cliui"
	"github.com/papercomputeco/docrag/pkg/config"
	"github.com/papercomputeco/docrag/pkg/ingest"
	"github.com/papercomputeco/docrag/pkg/pipeline"
)

type ingestCommander struct {
	watchDir string
	out      io.Writer
}

const ingestLongDesc string = `Ingest documents into docrag.

Each file is extracted, chunked, embedded and indexed. A file that fails
does not affect the others. With --watch, files created or modified in the
given directory are ingested as they settle, until interrupted.

Examples:
  docrag ingest notes.txt report.pdf
  docrag ingest --owner alice handbook.docx
  docrag ingest --watch ./inbox`

const ingestShortDesc string = "Ingest documents"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && cmder.watchDir == "" {
				return errors.New("pass at least one file or --watch <dir>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmdutil.WithPipeline(cmd, cmdutil.PipelineKeys, nil, func(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) error {
				if len(args) > 0 {
					if err := cmder.ingestPaths(ctx, cfg.API.DefaultOwner, p, args); err != nil {
						return err
					}
				}
				if cmder.watchDir != "" {
					return cmder.watch(ctx, cfg.API.DefaultOwner, p)
				}
				return nil
			})
		},
	}

	cmdutil.AddFlags(cmd, cmdutil.PipelineKeys)
	cmd.Flags().StringVarP(&cmder.watchDir, "watch", "w", "", "Watch a directory and ingest new or modified files")

	return cmd
}

func (c *ingestCommander) ingestPaths(ctx context.Context, owner string, p *pipeline.Pipeline, paths []string) error {
	uploads, err := readUploads(paths)
	if err != nil {
		return err
	}

	var res *ingest.Result
	stepErr := cliui.Step(c.out, fmt.Sprintf("Ingesting %d file(s) for %s", len(uploads), owner), func() error {
		res, err = p.Ingest.Ingest(ctx, owner, uploads)
		return err
	})
	if res == nil {
		return stepErr
	}

	c.printResult(res)
	return stepErr
}

func (c *ingestCommander) printResult(res *ingest.Result) {
	rows := make([][]string, 0, len(res.Documents))
	for _, doc := range res.Documents {
		rows = append(rows, []string{doc.ID, cliui.Truncate(doc.Filename, 48), strconv.Itoa(doc.ChunkCount)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(c.out)
		cliui.Table(c.out, []string{"ID", "FILENAME", "CHUNKS"}, rows)
	}

	for _, failure := range res.Failures {
		fmt.Fprintf(c.out, "  %s %s %s\n",
			cliui.FailMark,
			failure.Filename,
			cliui.DimStyle.Render(failure.Err.Error()),
		)
	}
}

func readUploads(paths []string) ([]ingest.Upload, error) {
	uploads := make([]ingest.Upload, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		uploads = append(uploads, ingest.Upload{
			Filename: filepath.Base(path),
			Data:     data,
		})
	}
	return uploads, nil
}
