package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"playhead/internal/clip"
	"playhead/internal/engine"
	"playhead/internal/playback"
	"playhead/internal/project"
	"playhead/internal/session"
	"playhead/internal/trigger"
)

// headlessPrimitive satisfies the playback contract without a renderer, so
// simulations run anywhere.
type headlessPrimitive struct{}

func (headlessPrimitive) SetClip(*clip.Ref) error { return nil }
func (headlessPrimitive) Advance(float64)         {}
func (headlessPrimitive) SetLocalTime(float64)    {}
func (headlessPrimitive) Dispose()                {}

type headlessFactory struct{}

func (headlessFactory) CreatePrimitive(string) (playback.Primitive, error) {
	return headlessPrimitive{}, nil
}

type firedEvent struct {
	Tick    int     `json:"tick"`
	Seconds float64 `json:"seconds"`
	Clip    string  `json:"clip"`
	Frame   int     `json:"frame"`
	ID      string  `json:"id"`
}

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var (
		clipName string
		director bool
		loop     bool
		seconds  float64
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <project.json>",
		Short: "Run a headless playback simulation and report fired triggers",
		Long: "Simulate ticks the engine at the configured tick rate without a " +
			"renderer. In clip mode one clip plays under free-play control; with " +
			"--director the whole timeline drives every placed model.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc, err := project.ReadFile(args[0])
			if err != nil {
				return err
			}
			logger := ctx.logger()
			library, timeline, err := doc.Materialize(logger)
			if err != nil {
				return err
			}

			sess, err := session.New(library, headlessFactory{}, logger)
			if err != nil {
				return err
			}
			if err := sess.ImportTriggers(doc.Triggers); err != nil {
				return err
			}

			tickRate := cfg.Engine.TickRate
			delta := 1.0 / float64(tickRate)

			var events []firedEvent
			record := func(tick int, due []trigger.Trigger) {
				for _, tr := range due {
					name := tr.ClipID
					if ref, err := library.Resolve(tr.ClipID); err == nil {
						name = ref.DisplayName
					}
					events = append(events, firedEvent{
						Tick:    tick,
						Seconds: float64(tick) * delta,
						Clip:    name,
						Frame:   tr.Frame,
						ID:      tr.ID,
					})
				}
			}

			var ticks int
			if director {
				if timeline == nil {
					return engine.Wrap(nil, "simulate", "setup", "project has no timeline", nil)
				}
				if seconds <= 0 {
					seconds = float64(timeline.TotalFrames()) / float64(timeline.FPS())
				}
				ticks = int(seconds * float64(tickRate))

				models := make(map[string]struct{})
				for _, track := range timeline.Tracks() {
					for _, p := range track.Placements() {
						models[p.SourceModelID] = struct{}{}
					}
				}
				if len(models) == 0 {
					return engine.Wrap(nil, "simulate", "setup", "timeline has no placements", nil)
				}
				for modelID := range models {
					if _, err := sess.RegisterModel(modelID); err != nil {
						return err
					}
					if err := sess.AttachDirector(modelID); err != nil {
						return err
					}
				}
				sess.SetTimeline(timeline)
				if err := sess.DirectorPlay(); err != nil {
					return err
				}
			} else {
				ref, err := resolveClip(library, clipName)
				if err != nil {
					return err
				}
				if seconds <= 0 {
					seconds = ref.DurationSeconds()
				}
				ticks = int(seconds * float64(tickRate))

				const modelID = "preview"
				if _, err := sess.RegisterModel(modelID); err != nil {
					return err
				}
				if err := sess.AttachFreePlay(modelID); err != nil {
					return err
				}
				opts := []playback.BindOption{}
				if loop {
					opts = append(opts, playback.WithLoop(true))
				}
				if err := sess.Bind(modelID, ref, opts...); err != nil {
					return err
				}
				if err := sess.Play(modelID); err != nil {
					return err
				}
			}

			for tick := 1; tick <= ticks; tick++ {
				record(tick, sess.Tick(delta))
			}

			if jsonOut {
				return writeJSON(cmd, events)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Simulated %.2fs at %d Hz: %d trigger(s) fired\n", seconds, tickRate, len(events))
			if len(events) > 0 {
				rows := make([][]string, 0, len(events))
				for _, ev := range events {
					rows = append(rows, []string{
						strconv.Itoa(ev.Tick),
						fmt.Sprintf("%.3fs", ev.Seconds),
						ev.Clip,
						strconv.Itoa(ev.Frame),
						ev.ID,
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Tick", "Time", "Clip", "Frame", "Trigger"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft}))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&clipName, "clip", "", "Clip to play (display name or id); defaults to the first clip")
	cmd.Flags().BoolVar(&director, "director", false, "Drive the director timeline instead of a single clip")
	cmd.Flags().BoolVar(&loop, "loop", false, "Loop the clip for the duration of the simulation")
	cmd.Flags().Float64Var(&seconds, "seconds", 0, "Simulation length; defaults to the clip or timeline length")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit fired triggers as JSON")
	return cmd
}

// resolveClip finds a clip by custom id first, then case-insensitively by
// display name. An empty query selects the first clip in the library.
func resolveClip(library *clip.Library, query string) (*clip.Ref, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		all := library.All()
		if len(all) == 0 {
			return nil, engine.Wrap(engine.ErrClipNotFound, "simulate", "resolve", "project has no clips", nil)
		}
		return all[0], nil
	}
	if ref, err := library.Resolve(query); err == nil {
		return ref, nil
	}
	for _, ref := range library.All() {
		if strings.EqualFold(ref.DisplayName, query) {
			return ref, nil
		}
	}
	return nil, engine.Wrap(engine.ErrClipNotFound, "simulate", "resolve",
		fmt.Sprintf("no clip named %q", query), nil)
}
