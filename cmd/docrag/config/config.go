// Package configcmder provides the config command for managing persistent
// docrag configuration stored in the .docrag/ directory.
package configcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docrag/pkg/cliui"
	"github.com/papercomputeco/docrag/pkg/config"
)

const configLongDesc string = `Manage persistent docrag configuration.

Configuration is stored as config.toml in the .docrag/ directory and
provides default values for command flags. Precedence, highest first:
CLI flags, DOCRAG_* environment variables, config.toml, built-in defaults.

Keys use dotted notation matching the TOML section structure, e.g.
storage.driver, vector_store.provider, embedding.model, llm.provider.

  docrag config init --preset ollama    Write a config for a provider preset
  docrag config set <key> <value>       Set a configuration value
  docrag config get <key>               Get a configuration value
  docrag config list                    List all configuration values`

const configShortDesc string = "Manage persistent docrag configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

// printTarget reports which config file is in effect.
func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if _, err := os.Stat(target); target != "" && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

// displayValue masks secrets and marks unset values.
func displayValue(key, value string) string {
	switch {
	case value == "":
		return cliui.DimStyle.Render("<not set>")
	case config.IsSecretKey(key):
		return cliui.DimStyle.Render("<redacted>")
	default:
		return cliui.ValueStyle.Render(value)
	}
}
