package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// starterSchema is written by init when no schema file exists. Users
// carries the token column the token commands need.
const starterSchema = `entities:
  - name: Users
    columns:
      - {name: id, type: string}
      - {name: email, type: string, required: true, unique: true, regex: "^[^@]+@[^@]+$", error_msg: "Invalid email:"}
      - {name: password, type: string, required: true, hashed: true}
      - {name: token, type: string}
    children:
      - {entity: Posts, foreign_key: userId, as: posts, on_delete: cascade}
  - name: Posts
    columns:
      - {name: id, type: string}
      - {name: userId, type: string, required: true, references: {entity: Users, as: author}}
      - {name: title, type: string, required: true}
      - {name: body, type: string}
      - {name: createdAt, type: date}
`

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize rowset configuration and storage",
		Long: "Create the configuration directory, config.yaml, and a starter schema\n" +
			"when missing, then attach the backend once so every entity sheet exists.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeSchemaIfMissing(a.schemaPath()); err != nil {
				return sysError(fmt.Errorf("write schema: %w", err))
			}
			err := a.withSession(func(s *session) error {
				a.log.Infow("initialized", "entities", s.reg.Entities())
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rowset initialized successfully")
			return nil
		},
	}
}

func writeSchemaIfMissing(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(starterSchema), 0o644)
}
