package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

func newInsertCmd(a *app) *cobra.Command {
	var hash []string
	cmd := &cobra.Command{
		Use:   "insert <entity> <json>",
		Short: "Validate and insert a record",
		Example: `  rowset insert Users '{"email":"ann@example.com","password":"s3cret"}' --hash password`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(args[1])
			if err != nil {
				return err
			}
			return a.withSession(func(s *session) error {
				c, err := s.collection(args[0])
				if err != nil {
					return err
				}
				saved, err := c.Insert(rec, hash...)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
	cmd.Flags().StringSliceVar(&hash, "hash", nil, "columns to store as digests")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var hash []string
	cmd := &cobra.Command{
		Use:   "update <entity> <id> <json>",
		Short: "Merge fields into an existing record",
		Long: "Update loads the record, overwrites the fields given in the JSON object,\n" +
			"and saves it after validating against every other record.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, id := args[0], args[1]
			patch, err := parseRecord(args[2])
			if err != nil {
				return err
			}
			return a.withSession(func(s *session) error {
				c, err := s.collection(entity)
				if err != nil {
					return err
				}
				rec, err := c.FindByID(id, 0)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("%w: %s %q", types.ErrNotFound, entity, id)
				}
				for k, v := range patch {
					rec[k] = v
				}
				saved, err := c.Update(id, rec, patchedFields(patch, hash)...)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
	cmd.Flags().StringSliceVar(&hash, "hash", nil, "columns to store as digests")
	return cmd
}

// patchedFields keeps the hash columns the patch sets. Stored values are
// already digests and must not be hashed again.
func patchedFields(patch types.Record, hash []string) []string {
	var out []string
	for _, f := range hash {
		if _, ok := patch[f]; ok {
			out = append(out, f)
		}
	}
	return out
}
