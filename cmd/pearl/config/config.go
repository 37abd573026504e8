// Package configcmder provides the config command for managing persistent
// pearl configuration stored in the .pearl/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/pearl/pkg/cliui"
	"github.com/papercomputeco/pearl/pkg/config"
)

const configLongDesc string = `Manage persistent pearl configuration.

Configuration is stored as config.toml in the .pearl/ directory and provides
default values for command flags. CLI flags and PEARL_* environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure, e.g.
  server.listen, server.upstream, api.listen,
  generation.model, generation.temperature,
  search.api_key, conversation.capacity,
  storage.driver, events.publisher

Use subcommands to get, set, or list configuration values:
  pearl config set <key> <value>    Set a configuration value
  pearl config get <key>            Get a configuration value
  pearl config list                 List all configuration values

Examples:
  pearl config set generation.model llama3
  pearl config set search.api_key $SERPER_KEY
  pearl config get server.upstream
  pearl config list`

const configShortDesc string = "Manage persistent pearl configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

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

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
