// Package initcmder provides the init command for initializing a local .pearl
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/pearl/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .pearl/ directory in the current working directory.

Creates a local .pearl/ directory that takes precedence over the default
~/.pearl/ directory for config.toml and persona.toml.

This is useful for running several Pearl personalities side by side.

Examples:
  pearl init`

const initShortDesc string = "Initialize a local .pearl/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout())
		},
	}

	return cmd
}

func runInit(w io.Writer) error {
	dir, created, err := dotdir.NewManager().InitLocal()
	if err != nil {
		return err
	}

	if !created {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
		return nil
	}

	fmt.Fprintf(w, "Initialized .pearl directory: %s\n", dir)
	return nil
}
