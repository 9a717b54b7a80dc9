package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"playhead/internal/project"
)

// watchDebounce coalesces the burst of events editors emit per save.
const watchDebounce = 200 * time.Millisecond

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <project.json>",
		Short: "Revalidate a project document whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			// Watch the directory: editors that save via rename replace the
			// inode, which silently drops a watch on the file itself.
			if err := watcher.Add(filepath.Dir(target)); err != nil {
				return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			logger := ctx.logger()
			check := func() {
				doc, err := project.ReadFile(target)
				if err == nil {
					_, _, err = doc.Materialize(logger)
				}
				stamp := time.Now().Format("15:04:05")
				if err != nil {
					fmt.Fprintf(out, "%s INVALID %s: %v\n", stamp, filepath.Base(target), err)
					return
				}
				fmt.Fprintf(out, "%s ok %s (%d clips, %d triggers)\n",
					stamp, filepath.Base(target), len(doc.Clips), len(doc.Triggers))
			}
			check()

			var debounce *time.Timer
			pending := make(chan struct{}, 1)
			scheduleCheck := func() {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			}

			for {
				select {
				case <-runCtx.Done():
					return nil
				case <-pending:
					check()
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Name != target {
						continue
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
						scheduleCheck()
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Warn("watch error", "error", err)
				}
			}
		},
	}
}
