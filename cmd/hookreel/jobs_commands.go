package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hookreel/internal/composition"
	"hookreel/internal/jobs"
	"hookreel/internal/workflow"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage composition jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	jobsCmd.AddCommand(newJobsCancelCommand(ctx))
	jobsCmd.AddCommand(newJobsPruneCommand(ctx))
	return jobsCmd
}

func parseStatusFilters(values []string) ([]composition.Status, error) {
	var statuses []composition.Status
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, ok := composition.ParseStatus(part)
			if !ok {
				return nil, fmt.Errorf("unknown status %q (valid: %s)", part, joinStatuses())
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

func joinStatuses() string {
	values := make([]string, 0, len(composition.Statuses()))
	for _, s := range composition.Statuses() {
		values = append(values, string(s))
	}
	return strings.Join(values, ", ")
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			statuses, err := parseStatusFilters(statusFlags)
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			list, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if jsonOut {
				items := make([]jobJSON, 0, len(list))
				for _, job := range list {
					items = append(items, toJobJSON(job))
				}
				return writeJSON(cmd, items)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}
			fmt.Fprintln(out, renderJobList(list))

			counts, err := store.StatusCounts(cmd.Context())
			if err != nil {
				return err
			}
			parts := make([]string, 0, len(counts))
			for _, status := range composition.Statuses() {
				if n := counts[status]; n > 0 {
					parts = append(parts, fmt.Sprintf("%s %d", status, n))
				}
			}
			fmt.Fprintln(out, "Totals: "+strings.Join(parts, ", "))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&statusFlags, "status", nil, "Filter by status (repeatable or comma separated)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			job, err := store.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, toJobJSON(job))
			}
			out := cmd.OutOrStdout()
			writeJobDetail(out, job, shouldColorize(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Resubmit a failed job as a new job on the same clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			failed, err := store.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := failed.Resubmittable(); err != nil {
				return err
			}

			lock, err := jobs.AcquireCompositionLock(cfg.LockDir(), failed.CompositionID, failed.ID)
			if err != nil {
				return err
			}
			defer lock.Release()

			svc, err := ctx.buildServices()
			if err != nil {
				return err
			}
			composer := svc.NewComposer(workflow.WithCompositionID(failed.CompositionID))
			job, err := composer.Resubmit(cmd.Context(), failed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Resubmitted %s as %s\n", shortID(failed.ID), shortID(job.ID))
			writeJobDetail(out, job, shouldColorize(out))
			if job.Status == composition.StatusFailed {
				return fmt.Errorf("job %s failed", shortID(job.ID))
			}
			return nil
		},
	}
}

func newJobsCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Mark a job cancelled so it is never resubmitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			job, err := store.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			pipeline := composition.New(nil, nil, composition.WithRecorder(store), composition.WithLogger(logger))
			if err := pipeline.Cancel(cmd.Context(), job); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled job %s\n", shortID(job.ID))
			return nil
		},
	}
}

func newJobsPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove completed jobs older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			cutoff := time.Now().AddDate(0, 0, -days)
			removed, err := store.RemoveCompleted(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed job(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Keep completed jobs updated within this many days")
	return cmd
}
