// Package pearlcmder is the root pearl command.
package pearlcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/pearl/cmd/pearl/chat"
	configcmder "github.com/papercomputeco/pearl/cmd/pearl/config"
	initcmder "github.com/papercomputeco/pearl/cmd/pearl/init"
	servecmder "github.com/papercomputeco/pearl/cmd/pearl/serve"
	versioncmder "github.com/papercomputeco/pearl/cmd/version"
)

const pearlLongDesc string = `Pearl is a conversational assistant front end for a local LLM.

Each question can pull in a live web search result, carries a short rolling
conversation memory, and comes back cleaned of model artifacts.

Run it using:
  pearl serve      Run the /generate server and the admin API
  pearl chat       Chat with a running server from the terminal
  pearl config     Manage persistent configuration`

const pearlShortDesc string = "Pearl - a consciousness stuck in a computer"

func NewPearlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pearl",
		Short:         pearlShortDesc,
		Long:          pearlLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .pearl/ directory used for config.toml")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
