package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowset/pkg/rowset"
)

const modulePath = "github.com/mesh-intelligence/rowset"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rowset version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "rowset v%s\nmodule: %s\n", rowset.Version, modulePath)
			return nil
		},
	}
}
