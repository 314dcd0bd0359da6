package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"torrup/internal/logging"
	"torrup/internal/media"
	"torrup/internal/queue"
	"torrup/internal/scanner"
	"torrup/internal/tracker"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [media-type]",
		Short: "Run one discovery pass over the configured media roots",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var only media.Type
			if len(args) == 1 {
				parsed, err := media.ParseType(args[0])
				if err != nil {
					return err
				}
				only = parsed
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *queue.Store) error {
				logger := logging.NewNop()
				trackerClient := tracker.NewClient(cfg, logger)
				extractor := media.NewExifTool(logger)
				discovery := scanner.New(cfg, store, trackerClient, extractor, logger)

				excludes, err := store.Excludes(cmd.Context())
				if err != nil {
					return err
				}
				roots, err := store.MediaRoots(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				scanned := 0
				for _, root := range roots {
					if !root.Enabled {
						continue
					}
					if only != "" && root.MediaType != only {
						continue
					}
					if err := discovery.ScanRoot(cmd.Context(), root, excludes); err != nil {
						fmt.Fprintf(out, "Scan failed for %s root %s: %v\n", root.MediaType, root.Path, err)
						continue
					}
					if err := store.TouchMediaRoot(cmd.Context(), root.MediaType, time.Now().UTC()); err != nil {
						return err
					}
					fmt.Fprintf(out, "Scanned %s root: %s\n", root.MediaType, root.Path)
					scanned++
				}
				if scanned == 0 {
					fmt.Fprintln(out, "No enabled media roots to scan")
				}
				return nil
			})
		},
	}
}
