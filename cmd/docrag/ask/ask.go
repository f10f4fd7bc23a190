// Package askcmder provides the ask command, which answers a question from
// the caller's ingested documents.
package askcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docrag/cmd/docrag/cmdutil"
	"github.com/papercomputeco/docrag/pkg/cliui"
	"github.com/papercomputeco/docrag/pkg/config"
	"github.com/papercomputeco/docrag/pkg/pipeline"
	"github.com/papercomputeco/docrag/pkg/query"
)

type askCommander struct {
	jsonOutput bool
	out        io.Writer
}

const askLongDesc string = `Ask a question about your documents.

The question is embedded, the closest chunks are retrieved from the
owner's documents, and an answer is generated from them. Sources are
listed below the answer.

Examples:
  docrag ask "What does the handbook say about leave?"
  docrag ask --owner alice --top-k 8 "Summarize the Q3 report"
  docrag ask --json "Who signed the contract?"`

const askShortDesc string = "Ask a question about your documents"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()
			question := strings.Join(args, " ")
			return cmdutil.WithPipeline(cmd, cmdutil.PipelineKeys, nil, func(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) error {
				return cmder.run(ctx, cfg, p, question)
			})
		},
	}

	cmdutil.AddFlags(cmd, cmdutil.PipelineKeys)
	cmd.Flags().BoolVar(&cmder.jsonOutput, "json", false, "Print the answer and sources as JSON")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, question string) error {
	answer, err := p.Query.Answer(ctx, question, cfg.API.DefaultOwner, int(cfg.Query.TopK))
	if err != nil {
		return err
	}

	if c.jsonOutput {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	c.printAnswer(answer)
	return nil
}

func (c *askCommander) printAnswer(answer *query.Answer) {
	body := answer.Answer
	if cliui.IsTerminal(c.out) {
		if rendered, err := cliui.RenderMarkdown(body); err == nil {
			body = rendered
		}
	}
	fmt.Fprintln(c.out, strings.TrimRight(body, "\n"))

	if len(answer.Sources) == 0 {
		return
	}

	fmt.Fprintf(c.out, "\n%s\n", cliui.HeaderStyle.Render("Sources"))
	for i, src := range answer.Sources {
		score := ""
		if src.Score != nil {
			score = cliui.DimStyle.Render(fmt.Sprintf(" (%.3f)", *src.Score))
		}
		fmt.Fprintf(c.out, "  [%d] %s #%d%s\n", i+1, cliui.KeyStyle.Render(src.DocumentName), src.ChunkIndex, score)
		fmt.Fprintf(c.out, "      %s\n", cliui.DimStyle.Render(cliui.Truncate(oneLine(src.Snippet), 96)))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
