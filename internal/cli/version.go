package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tapestry/pkg/tapestry"
)

const modulePath = "github.com/mesh-intelligence/tapestry"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tapestry version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tapestry v%s\nmodule: %s\n", tapestry.Version, modulePath)
			return nil
		},
	}
}
