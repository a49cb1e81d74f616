package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stylesync/internal/api"
)

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and manage generation jobs",
	}
	jobCmd.AddCommand(newJobCreateCommand(ctx))
	jobCmd.AddCommand(newJobListCommand(ctx))
	jobCmd.AddCommand(newJobClearCommand(ctx))
	jobCmd.AddCommand(newJobRegenerateCommand(ctx))
	jobCmd.AddCommand(newJobCompleteCommand(ctx))
	return jobCmd
}

func newJobCreateCommand(ctx *commandContext) *cobra.Command {
	var req api.CreateJobRequest
	var style, color, layout int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Queue a generation job for an album",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("style") {
				req.StyleIntensity = &style
			}
			if flags.Changed("color") {
				req.ColorVariation = &color
			}
			if flags.Changed("layout") {
				req.LayoutVariation = &layout
			}
			return ctx.withService(cmd, func(svc *api.Service) error {
				result, err := svc.CreateJob(cmd.Context(), req)
				if err != nil {
					return err
				}
				return ctx.emitJobResult(cmd, result)
			})
		},
	}

	cmd.Flags().StringVar(&req.Album, "album", "", "Album to generate from")
	cmd.Flags().StringVar(&req.Outreach, "outreach", "", "Type of outreach")
	cmd.Flags().IntVar(&style, "style", 50, "Style intensity (0-100)")
	cmd.Flags().IntVar(&color, "color", 50, "Color variation (0-100)")
	cmd.Flags().IntVar(&layout, "layout", 50, "Layout variation (0-100)")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "Free-form notes for the job")
	return cmd
}

func newJobListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List queued and done jobs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := api.ParseJobStatus(statusFilter)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, func(svc *api.Service) error {
				resp, err := svc.ListJobs(cmd.Context())
				if err != nil {
					return err
				}
				resp = resp.Only(status)
				return ctx.emit(cmd, resp, func() string {
					return renderJobList(resp)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Only show jobs in this status (queued or done)")
	return cmd
}

func newJobClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *api.Service) error {
				resp, err := svc.ClearJobs(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, resp, func() string {
					return resp.Notice
				})
			})
		},
	}
}

func newJobRegenerateCommand(ctx *commandContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "regenerate <id>",
		Short: "Re-queue a copy of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			var notesOverride *string
			if cmd.Flags().Changed("notes") {
				notesOverride = &notes
			}
			return ctx.withService(cmd, func(svc *api.Service) error {
				result, err := svc.RegenerateJob(cmd.Context(), id, notesOverride)
				if err != nil {
					return err
				}
				return ctx.emitJobResult(cmd, result)
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Replacement notes for the copy (blank keeps the originals)")
	return cmd
}

func newJobCompleteCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a job done",
		Long: "Mark a job done. Without --output the job points at its album's\n" +
			"first image; with --output the given uploads-relative path is recorded.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(cmd, func(svc *api.Service) error {
				var result api.JobActionResult
				if cmd.Flags().Changed("output") {
					result, err = svc.SubmitCompletion(cmd.Context(), id, &output)
				} else {
					result, err = svc.MarkComplete(cmd.Context(), id)
				}
				if err != nil {
					return err
				}
				return ctx.emitJobResult(cmd, result)
			})
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Output path reported by the generation pipeline")
	return cmd
}

// emitJobResult prints the result, or fails with its notice when the job
// was not found.
func (c *commandContext) emitJobResult(cmd *cobra.Command, result api.JobActionResult) error {
	if !result.Found() {
		return errors.New(result.Notice)
	}
	return c.emit(cmd, result, func() string {
		if result.Job == nil {
			return result.Notice
		}
		return result.Notice + "\n" + renderJobTable([]api.Job{*result.Job})
	})
}

func renderJobList(resp api.JobListResponse) string {
	if len(resp.Queued) == 0 && len(resp.Done) == 0 {
		return "No jobs"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Queued (%d)\n", len(resp.Queued))
	if len(resp.Queued) > 0 {
		b.WriteString(renderJobTable(resp.Queued))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nDone (%d)", len(resp.Done))
	if len(resp.Done) > 0 {
		b.WriteString("\n")
		b.WriteString(renderJobTable(resp.Done))
	}
	return b.String()
}

func renderJobTable(list []api.Job) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.Album,
			job.FileType,
			job.Outreach,
			fmt.Sprintf("%d/%d/%d", job.StyleIntensity, job.ColorVariation, job.LayoutVariation),
			job.Status,
			valueOrDash(job.OutputPath),
		})
	}
	cols := columns("ID", "Album", "Type", "Outreach", "Style/Color/Layout", "Status", "Output")
	cols[0].numeric = true
	return renderTable(cols, rows)
}

func parseJobID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", value)
	}
	return id, nil
}
