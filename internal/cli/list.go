package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowset/pkg/schema"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "list <entity> [column=value...]",
		Short: "List records with optional filters",
		Long: `List prints every record of an entity as a JSON array.

Filters are column=value pairs and are ANDed together. Values are parsed
as JSON when possible, so total=12 matches the number 12 and
title=hello matches the string.

Example:
  rowset list Users
  rowset list Posts userId=0190c5e2 --depth 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilters(args[1:])
			if err != nil {
				return userError(err)
			}
			return a.withSession(func(s *session) error {
				c, err := s.collection(args[0])
				if err != nil {
					return err
				}
				recs, err := c.All(depth)
				if err != nil {
					return err
				}
				out := make([]types.Record, 0, len(recs))
				for _, rec := range recs {
					if matches(rec, filter) {
						out = append(out, rec)
					}
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "relation depth to load")
	return cmd
}

// parseFilters turns column=value arguments into a filter map.
func parseFilters(args []string) (map[string]any, error) {
	filter := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (expected column=value)", arg)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		filter[key] = parsed
	}
	return filter, nil
}

func matches(rec types.Record, filter map[string]any) bool {
	for key, want := range filter {
		if !filterValueMatches(rec[key], want) {
			return false
		}
	}
	return true
}

// filterValueMatches compares like unique columns do, and also lets a
// string filter match a cell by its text form.
func filterValueMatches(got, want any) bool {
	if want == nil {
		return got == nil || got == ""
	}
	if schema.SameValue(got, want) {
		return true
	}
	s, ok := want.(string)
	if !ok || got == nil {
		return false
	}
	if t, ok := got.(time.Time); ok {
		return t.UTC().Format(time.RFC3339) == s
	}
	return cast.ToString(got) == s
}
