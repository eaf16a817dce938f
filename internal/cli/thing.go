// Thing commands stage thing changes and list things.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelf/pkg/sqlite"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

func newThingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thing",
		Short: "Manage things",
	}
	cmd.AddCommand(newThingAddCmd(a))
	cmd.AddCommand(newThingEditCmd(a))
	cmd.AddCommand(newThingShowCmd(a))
	cmd.AddCommand(newThingListCmd(a))
	cmd.AddCommand(newThingRemoveCmd(a))
	cmd.AddCommand(newThingTagCmd(a))
	cmd.AddCommand(newThingUntagCmd(a))
	return cmd
}

type thingOptions struct {
	name     string
	summary  string
	category string
	tags     []string
}

func newThingAddCmd(a *app) *cobra.Command {
	var opts thingOptions
	cmd := &cobra.Command{
		Use:   "add URL",
		Short: "Stage a new thing",
		Long: `Add stages a new thing with its category and tags. The category and every
tag must already exist.

Example:
  shelf thing add https://go.dev --name Go --category lang --tag web`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thing, err := types.NewThing().
				WithURL(args[0]).
				WithName(opts.name).
				WithSummary(opts.summary).
				WithCategory(opts.category).
				WithTags(opts.tags).
				Build()
			if err != nil {
				return err
			}
			return a.withStore(func(s *sqlite.Store) error {
				if err := s.Update(func(q sqlite.Querier) error {
					return s.Things().Add(q, *thing)
				}); err != nil {
					return err
				}
				return a.printThing(cmd.OutOrStdout(), s, thing.URL, "Staged thing")
			})
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&opts.summary, "summary", "", "short description")
	cmd.Flags().StringVar(&opts.category, "category", types.DefaultCategory, "category tag id")
	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "tag id (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newThingEditCmd(a *app) *cobra.Command {
	var opts thingOptions
	cmd := &cobra.Command{
		Use:   "edit URL",
		Short: "Stage a new version of a thing",
		Long: `Edit replaces fields of an existing thing. Flags left unset keep their
current value; --tag replaces the whole tag list.

Example:
  shelf thing edit https://go.dev --summary "The Go programming language"
  shelf thing edit https://go.dev --tag web --tag lang`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				var url string
				err := s.Update(func(q sqlite.Querier) error {
					thing, err := s.Things().Get(q, args[0])
					if err != nil {
						return err
					}
					flags := cmd.Flags()
					if flags.Changed("name") {
						thing.Name = opts.name
					}
					if flags.Changed("summary") {
						thing.Summary = types.OptionalString(opts.summary)
					}
					if flags.Changed("category") {
						thing.CategoryID = opts.category
					}
					if flags.Changed("tag") {
						thing.Tags = opts.tags
					}
					url = thing.URL
					return s.Things().Replace(q, *thing)
				})
				if err != nil {
					return err
				}
				return a.printThing(cmd.OutOrStdout(), s, url, "Staged thing")
			})
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.summary, "summary", "", "short description")
	cmd.Flags().StringVar(&opts.category, "category", "", "category tag id")
	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "tag id (repeatable, replaces the list)")
	return cmd
}

func newThingShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show URL",
		Short: "Show one thing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				thing, err := s.Things().Get(s.DB(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.format(), thing, func(w io.Writer) error {
					return printThingDetail(w, thing)
				})
			})
		},
	}
}

func newThingListCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List things",
		Long: `List shows every thing with its tags, staged changes included.

Example:
  shelf thing list
  shelf thing list --category lang
  shelf thing list --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				var (
					things []types.Thing
					err    error
				)
				if category != "" {
					things, err = s.Things().ListCategorised(s.DB(), category)
				} else {
					things, err = s.Things().List(s.DB())
				}
				if err != nil {
					return err
				}
				return a.printThings(cmd.OutOrStdout(), things)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only things in this category")
	return cmd
}

func newThingRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove URL",
		Short: "Stage the removal of a thing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				if err := s.Update(func(q sqlite.Querier) error {
					return s.Things().Remove(q, args[0])
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Staged removal of thing %s\n", args[0])
				return nil
			})
		},
	}
}

func newThingTagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tag URL TAG",
		Short: "Stage a tag on a thing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pair := types.ThingTag{ThingID: args[0], TagID: args[1]}
			return a.withStore(func(s *sqlite.Store) error {
				if err := s.Update(func(q sqlite.Querier) error {
					return s.ThingTags().Add(q, pair)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Staged tag %s on %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func newThingUntagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "untag URL TAG",
		Short: "Stage the removal of a tag from a thing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pair := types.ThingTag{ThingID: args[0], TagID: args[1]}
			return a.withStore(func(s *sqlite.Store) error {
				if err := s.Update(func(q sqlite.Querier) error {
					return s.ThingTags().Remove(q, pair)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Staged removal of tag %s from %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func (a *app) printThing(w io.Writer, s *sqlite.Store, url, verb string) error {
	thing, err := s.Things().Get(s.DB(), url)
	if err != nil {
		return err
	}
	return render(w, a.format(), thing, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s: %s\n", verb, thing.URL)
		return err
	})
}

func printThingDetail(w io.Writer, t *types.Thing) error {
	rows := [][]string{
		{"url", t.URL},
		{"name", t.Name},
		{"summary", types.StringValue(t.Summary)},
		{"category", t.CategoryID},
		{"tags", strings.Join(t.Tags, ", ")},
	}
	return printTable(w, []string{"FIELD", "VALUE"}, rows)
}

func (a *app) printThings(w io.Writer, things []types.Thing) error {
	return render(w, a.format(), things, func(w io.Writer) error {
		if len(things) == 0 {
			_, err := fmt.Fprintln(w, "No things found.")
			return err
		}
		rows := make([][]string, len(things))
		for i, t := range things {
			rows[i] = []string{truncate(t.URL, 40), truncate(t.Name, 30), t.CategoryID, strings.Join(t.Tags, ",")}
		}
		if err := printTable(w, []string{"URL", "NAME", "CATEGORY", "TAGS"}, rows); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Total: %d thing(s)\n", len(things))
		return err
	})
}
