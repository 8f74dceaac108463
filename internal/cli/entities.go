package cli

import (
	"github.com/spf13/cobra"
)

type entityInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Count   int      `json:"count"`
}

func newEntitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List registered entities with their columns and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				infos := make([]entityInfo, 0, len(s.defs))
				for _, def := range s.defs {
					c, err := s.collection(def.Name())
					if err != nil {
						return err
					}
					n, err := c.Count()
					if err != nil {
						return err
					}
					infos = append(infos, entityInfo{Name: def.Name(), Columns: def.Headers(), Count: n})
				}
				return printJSON(cmd.OutOrStdout(), infos)
			})
		},
	}
}
