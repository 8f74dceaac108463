package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

func newGetCmd(a *app) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Print one record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, id := args[0], args[1]
			return a.withSession(func(s *session) error {
				c, err := s.collection(entity)
				if err != nil {
					return err
				}
				rec, err := c.FindByID(id, depth)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("%w: %s %q", types.ErrNotFound, entity, id)
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "relation depth to load")
	return cmd
}
