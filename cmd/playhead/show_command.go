package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"playhead/internal/project"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <project.json>",
		Short: "Display the contents of a project document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := project.ReadFile(args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, doc)
			}
			printDocument(cmd, doc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the document as JSON")
	return cmd
}

func printDocument(cmd *cobra.Command, doc *project.Document) {
	out := cmd.OutOrStdout()
	names := clipNames(doc)

	fmt.Fprintf(out, "Project: %s\n\n", doc.Name)

	clipRows := make([][]string, 0, len(doc.Clips))
	for _, c := range doc.Clips {
		clipRows = append(clipRows, []string{
			c.DisplayName,
			c.OriginalName,
			fmt.Sprintf("%d-%d", c.StartFrame, c.EndFrame),
			strconv.Itoa(c.FPS),
			fmt.Sprintf("%.2fs", c.Duration),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Clip", "Source", "Frames", "FPS", "Duration"},
		clipRows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight}))

	if len(doc.Triggers) > 0 {
		rows := make([][]string, 0, len(doc.Triggers))
		sorted := make([]int, len(doc.Triggers))
		for i := range sorted {
			sorted[i] = i
		}
		sort.Slice(sorted, func(a, b int) bool {
			ta, tb := doc.Triggers[sorted[a]], doc.Triggers[sorted[b]]
			if ta.ClipID != tb.ClipID {
				return names[ta.ClipID] < names[tb.ClipID]
			}
			return ta.Frame < tb.Frame
		})
		for _, i := range sorted {
			tr := doc.Triggers[i]
			rows = append(rows, []string{names[tr.ClipID], strconv.Itoa(tr.Frame), tr.ID})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(out,
			[]string{"Trigger Clip", "Frame", "ID"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft}))
	}

	if len(doc.Playlist) > 0 {
		rows := make([][]string, 0, len(doc.Playlist))
		for i, id := range doc.Playlist {
			rows = append(rows, []string{strconv.Itoa(i + 1), names[id]})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(out,
			[]string{"#", "Playlist Entry"},
			rows,
			[]columnAlignment{alignRight, alignLeft}))
	}

	if doc.Timeline != nil {
		rows := make([][]string, 0)
		for _, track := range doc.Timeline.Tracks {
			for _, p := range track.Clips {
				rows = append(rows, []string{
					track.Name,
					names[p.SourceAnimationID],
					fmt.Sprintf("%d-%d", p.StartFrame, p.EndFrame),
					fmt.Sprintf("%.2fx", p.Speed),
					yesNo(p.Loop),
				})
			}
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Timeline: %d frames @ %d fps\n", doc.Timeline.TotalFrames, doc.Timeline.FPS)
		fmt.Fprintln(out, renderTable(out,
			[]string{"Track", "Clip", "Span", "Speed", "Loop"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
	}
}

// clipNames maps clip ids to display names, falling back to the id for
// dangling references so output never hides a broken link.
func clipNames(doc *project.Document) map[string]string {
	names := make(map[string]string, len(doc.Clips))
	for _, c := range doc.Clips {
		names[c.CustomID] = c.DisplayName
	}
	lookup := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return id
	}
	out := make(map[string]string, len(doc.Clips))
	for _, c := range doc.Clips {
		out[c.CustomID] = lookup(c.CustomID)
	}
	for _, tr := range doc.Triggers {
		out[tr.ClipID] = lookup(tr.ClipID)
	}
	for _, id := range doc.Playlist {
		out[id] = lookup(id)
	}
	if doc.Timeline != nil {
		for _, track := range doc.Timeline.Tracks {
			for _, p := range track.Clips {
				out[p.SourceAnimationID] = lookup(p.SourceAnimationID)
			}
		}
	}
	return out
}
