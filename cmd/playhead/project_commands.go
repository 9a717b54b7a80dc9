package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"playhead/internal/project"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage the project store",
	}

	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectImportCommand(ctx))
	projectCmd.AddCommand(newProjectExportCommand(ctx))
	projectCmd.AddCommand(newProjectDeleteCommand(ctx))

	return projectCmd
}

func (c *commandContext) withStore(fn func(*project.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := project.OpenStore(cfg.Paths.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *project.Store) error {
				summaries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, summaries)
				}
				out := cmd.OutOrStdout()
				if len(summaries) == 0 {
					fmt.Fprintln(out, "No stored projects")
					return nil
				}
				rows := make([][]string, 0, len(summaries))
				for _, s := range summaries {
					updated := ""
					if !s.UpdatedAt.IsZero() {
						updated = s.UpdatedAt.Local().Format("2006-01-02 15:04")
					}
					rows = append(rows, []string{
						s.Name,
						strconv.Itoa(s.Clips),
						strconv.Itoa(s.Triggers),
						strconv.Itoa(s.Playlist),
						yesNo(s.Timeline),
						updated,
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Project", "Clips", "Triggers", "Playlist", "Timeline", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit summaries as JSON")
	return cmd
}

func newProjectImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <project.json>",
		Short: "Import a project document into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := project.ReadFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *project.Store) error {
				if err := store.Save(cmd.Context(), doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported project %q (%d clips, %d triggers)\n",
					doc.Name, len(doc.Clips), len(doc.Triggers))
				return nil
			})
		},
	}
}

func newProjectExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> <project.json>",
		Short: "Export a stored project to a document file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *project.Store) error {
				doc, err := store.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if doc == nil {
					return fmt.Errorf("project %q not found in store", args[0])
				}
				if err := project.WriteFile(args[1], doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported project %q to %s\n", doc.Name, args[1])
				return nil
			})
		},
	}
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *project.Store) error {
				removed, err := store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("project %q not found in store", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %q\n", args[0])
				return nil
			})
		},
	}
}
