package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"torrup/internal/certainty"
	"torrup/internal/logging"
	"torrup/internal/media"
	"torrup/internal/queue"
	"torrup/internal/release"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the upload queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueApproveCommand(ctx))
	queueCmd.AddCommand(newQueueRejectCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var addCategory int
	var addTags string
	var addReleaseName string

	cmd := &cobra.Command{
		Use:   "add <media-type> <path>",
		Short: "Add a release to the upload queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaType, err := media.ParseType(args[0])
			if err != nil {
				return err
			}

			info, err := os.Stat(args[1])
			if err != nil {
				return fmt.Errorf("path not found: %s", args[1])
			}

			category := addCategory
			if category == 0 {
				category = media.DefaultCategory(mediaType)
			} else if !media.ValidCategory(mediaType, category) {
				return fmt.Errorf("invalid category %d for media type %s", category, mediaType)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *queue.Store) error {
				extractor := media.NewExifTool(logging.NewNop())
				meta, err := extractor.Extract(cmd.Context(), args[1], mediaType)
				if err != nil {
					meta = media.Metadata{}
				}

				releaseName := addReleaseName
				if releaseName == "" {
					group, err := store.Setting(cmd.Context(), queue.SettingReleaseGroup)
					if err != nil {
						return err
					}
					if group == "" {
						group = "torrup"
					}
					releaseName = release.Generate(meta, mediaType, group)
					if release.NeedsFallback(releaseName) {
						releaseName = release.Suggest(args[1], info.IsDir())
					}
				}

				score := certainty.Score(meta, mediaType)
				approval := queue.ApprovalApproved
				if !certainty.Approved(score, cfg.Policy.ApprovalThreshold) {
					approval = queue.ApprovalPending
				}

				item, err := store.Insert(cmd.Context(), &queue.Item{
					MediaType:      mediaType,
					SourcePath:     args[1],
					ReleaseName:    releaseName,
					Category:       category,
					Tags:           addTags,
					IMDB:           meta.IMDB,
					TVMazeID:       meta.TVMazeID,
					TVMazeType:     meta.TVMazeType,
					Status:         queue.StatusQueued,
					CertaintyScore: score,
					ApprovalStatus: approval,
				})
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Added to queue: id=%d, release=%s, certainty=%d%%, status=%s\n",
					item.ID, item.ReleaseName, item.CertaintyScore, item.ApprovalStatus)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&addCategory, "category", 0, "Tracker category id (defaults per media type)")
	cmd.Flags().StringVar(&addTags, "tags", "", "Comma-separated tags")
	cmd.Flags().StringVar(&addReleaseName, "release-name", "", "Override the generated release name")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(listStatuses))
			for _, raw := range listStatuses {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(func(store *queue.Store) error {
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						string(item.MediaType),
						item.ReleaseName,
						string(item.Status),
						fmt.Sprintf("%d%%", item.CertaintyScore),
						string(item.ApprovalStatus),
						item.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				table := renderTable(
					[]string{"ID", "Type", "Release", "Status", "Certainty", "Approval", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if stats.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := [][]string{
					{"queued", strconv.Itoa(stats.Queued)},
					{"preparing", strconv.Itoa(stats.Preparing)},
					{"uploading", strconv.Itoa(stats.Uploading)},
					{"success", strconv.Itoa(stats.Success)},
					{"failed", strconv.Itoa(stats.Failed)},
					{"duplicate", strconv.Itoa(stats.Duplicate)},
					{"pending approval", strconv.Itoa(stats.Pending)},
					{"total", strconv.Itoa(stats.Total)},
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <itemID>",
		Short: "Approve a queue item for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("queue item not found: %d", id)
				}
				if err := store.SetApproval(cmd.Context(), id, queue.ApprovalApproved); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Approved item %d (%s)\n", id, item.ReleaseName)
				return nil
			})
		},
	}
}

func newQueueRejectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <itemID>",
		Short: "Reject a queue item so the worker never picks it up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("queue item not found: %d", id)
				}
				if err := store.UpdateStatus(cmd.Context(), id, queue.StatusFailed, "Rejected by operator"); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rejected item %d (%s)\n", id, item.ReleaseName)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Re-queue all failed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				updated, err := store.RetryFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed items\n", updated)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <itemID>",
		Short: "Remove a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("queue item not found: %d", id)
				}
				if err := store.Remove(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item %d (%s)\n", id, item.ReleaseName)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearStatuses []string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(clearStatuses))
			for _, raw := range clearStatuses {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(func(store *queue.Store) error {
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d queue items\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&clearStatuses, "status", "s", nil, "Only remove items in these statuses (repeatable)")
	return cmd
}

func parseItemID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", raw)
	}
	return id, nil
}
