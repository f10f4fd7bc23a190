// Package reconcilecmder provides the reconcile command, which repairs
// documents whose vector entries disagree with the catalog.
package reconcilecmder

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docrag/cmd/docrag/cmdutil"
	"github.com/papercomputeco/docrag/pkg/cliui"
	"github.com/papercomputeco/docrag/pkg/config"
	"github.com/papercomputeco/docrag/pkg/ingest"
	"github.com/papercomputeco/docrag/pkg/pipeline"
)

const reconcileLongDesc string = `Repair documents missing vector entries.

Scans every document in the catalog. Documents that are not ready, or whose
vector count differs from their chunk count, are re-embedded from their
stored chunks and re-indexed.`

const reconcileShortDesc string = "Repair documents missing vector entries"

func NewReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: reconcileShortDesc,
		Long:  reconcileLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			return cmdutil.WithPipeline(cmd, cmdutil.PipelineKeys, nil, func(ctx context.Context, _ *config.Config, p *pipeline.Pipeline) error {
				var report *ingest.ReconcileReport
				err := cliui.Step(out, "Reconciling catalog and vector index", func() error {
					var err error
					report, err = p.Ingest.Reconcile(ctx)
					return err
				})
				if report != nil {
					printReport(out, report)
				}
				return err
			})
		},
	}

	cmdutil.AddFlags(cmd, cmdutil.PipelineKeys)

	return cmd
}

func printReport(w io.Writer, report *ingest.ReconcileReport) {
	fmt.Fprintf(w, "\n  %s %d  %s %d  %s %d  %s %d\n",
		cliui.KeyStyle.Render("scanned"), report.Scanned,
		cliui.KeyStyle.Render("healthy"), report.Healthy,
		cliui.KeyStyle.Render("repaired"), len(report.Repaired),
		cliui.KeyStyle.Render("failed"), len(report.Failures),
	)
	for _, id := range report.Repaired {
		fmt.Fprintf(w, "  %s %s\n", cliui.SuccessMark, id)
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(w, "  %s %s %s\n", cliui.FailMark, failure.Filename, cliui.DimStyle.Render(failure.Err.Error()))
	}
}
