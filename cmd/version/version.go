// Package versioncmder
package versioncmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docrag/pkg/utils"
)

type versionCommander struct {
	jsonOutput bool
}

type versionInfo struct {
	Version   string `json:"version"`
	Sha       string `json:"sha"`
	Buildtime string `json:"buildtime"`
}

func NewVersionCmd() *cobra.Command {
	cmder := &versionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit and build time of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&cmder.jsonOutput, "json", false, "Print version information as JSON")

	return cmd
}

func (c *versionCommander) run(w io.Writer) error {
	info := versionInfo{Version: utils.Version, Sha: utils.Sha, Buildtime: utils.Buildtime}
	if c.jsonOutput {
		return json.NewEncoder(w).Encode(info)
	}
	_, err := fmt.Fprintf(w, "docrag %s (%s, built %s)\n", info.Version, info.Sha, info.Buildtime)
	return err
}
