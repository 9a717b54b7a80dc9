package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"playhead/internal/project"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <project.json>",
		Short: "Validate a project document",
		Long: "Validate parses the document, checks every internal reference, and " +
			"rebuilds the timeline so placement invariants are enforced exactly as " +
			"the engine would at load time.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := project.ReadFile(args[0])
			if err != nil {
				return err
			}
			library, timeline, err := doc.Materialize(ctx.logger())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project %q is valid\n", doc.Name)
			fmt.Fprintf(out, "  clips:    %d\n", library.Len())
			fmt.Fprintf(out, "  triggers: %d\n", len(doc.Triggers))
			fmt.Fprintf(out, "  playlist: %d entries\n", len(doc.Playlist))
			if timeline != nil {
				fmt.Fprintf(out, "  timeline: %d tracks, %d frames @ %d fps\n",
					len(timeline.Tracks()), timeline.TotalFrames(), timeline.FPS())
			} else {
				fmt.Fprintln(out, "  timeline: none")
			}
			return nil
		},
	}
}
