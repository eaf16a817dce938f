// Tag commands stage tag changes and list tags.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelf/pkg/sqlite"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}
	cmd.AddCommand(newTagAddCmd(a))
	cmd.AddCommand(newTagEditCmd(a))
	cmd.AddCommand(newTagListCmd(a))
	cmd.AddCommand(newTagRemoveCmd(a))
	cmd.AddCommand(newTagCategoriesCmd(a))
	return cmd
}

func newTagAddCmd(a *app) *cobra.Command {
	var name, summary string
	cmd := &cobra.Command{
		Use:   "add ID",
		Short: "Stage a new tag",
		Long: `Add stages a new tag. The tag is written to tag.csv by commit.

Example:
  shelf tag add rust --name Rust --summary "Systems programming language"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := types.NewTag(args[0], name, summary)
			return a.withStore(func(s *sqlite.Store) error {
				if err := s.Update(func(q sqlite.Querier) error {
					return s.Tags().Add(q, *tag)
				}); err != nil {
					return err
				}
				return a.printTag(cmd.OutOrStdout(), s, tag.ID, "Staged tag")
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&summary, "summary", "", "short description")
	return cmd
}

func newTagEditCmd(a *app) *cobra.Command {
	var name, summary string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Stage a new version of a tag",
		Long: `Edit replaces the name and summary of an existing tag. Flags left unset
keep their current value.

Example:
  shelf tag edit rust --summary "Memory-safe systems language"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				err := s.Update(func(q sqlite.Querier) error {
					tag, err := s.Tags().Get(q, args[0])
					if err != nil {
						return err
					}
					if cmd.Flags().Changed("name") {
						tag.Name = types.OptionalString(name)
					}
					if cmd.Flags().Changed("summary") {
						tag.Summary = types.OptionalString(summary)
					}
					return s.Tags().Replace(q, *tag)
				})
				if err != nil {
					return err
				}
				return a.printTag(cmd.OutOrStdout(), s, args[0], "Staged tag")
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&summary, "summary", "", "short description")
	return cmd
}

func newTagListCmd(a *app) *cobra.Command {
	var without []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Long: `List shows every tag, staged changes included.

Example:
  shelf tag list
  shelf tag list --without misc --without web
  shelf tag list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				tags, err := s.Tags().ListWithout(s.DB(), without)
				if err != nil {
					return err
				}
				return a.printTags(cmd.OutOrStdout(), tags)
			})
		},
	}
	cmd.Flags().StringSliceVar(&without, "without", nil, "tag id to leave out (repeatable)")
	return cmd
}

func newTagCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List tags used as a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				tags, err := s.Tags().ListCategories(s.DB())
				if err != nil {
					return err
				}
				return a.printTags(cmd.OutOrStdout(), tags)
			})
		},
	}
}

func newTagRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Stage the removal of a tag",
		Long: `Remove stages the removal of a tag and detaches it from every thing. A tag
that is still the category of a thing cannot be removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				if err := s.Update(func(q sqlite.Querier) error {
					return s.Tags().Remove(q, args[0])
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Staged removal of tag %s\n", args[0])
				return nil
			})
		},
	}
}

// printTag renders one tag after a write.
func (a *app) printTag(w io.Writer, s *sqlite.Store, id, verb string) error {
	tag, err := s.Tags().Get(s.DB(), id)
	if err != nil {
		return err
	}
	return render(w, a.format(), tag, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s: %s\n", verb, tag.ID)
		return err
	})
}

func (a *app) printTags(w io.Writer, tags []types.Tag) error {
	return render(w, a.format(), tags, func(w io.Writer) error {
		if len(tags) == 0 {
			_, err := fmt.Fprintln(w, "No tags found.")
			return err
		}
		rows := make([][]string, len(tags))
		for i, t := range tags {
			rows[i] = []string{t.ID, types.StringValue(t.Name), truncate(types.StringValue(t.Summary), 50)}
		}
		if err := printTable(w, []string{"ID", "NAME", "SUMMARY"}, rows); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Total: %d tag(s)\n", len(tags))
		return err
	})
}
