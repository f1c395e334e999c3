package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hookreel/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var file string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent hookreel log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path := strings.TrimSpace(file)
			if path == "" {
				path, err = logs.Latest(cfg.Paths.LogDir)
				if errors.Is(err, logs.ErrNoLogs) {
					fmt.Fprintf(cmd.OutOrStdout(), "No logs yet in %s\n", cfg.Paths.LogDir)
					return nil
				}
				if err != nil {
					return err
				}
			} else if !filepath.IsAbs(path) {
				path = filepath.Join(cfg.Paths.LogDir, path)
			}

			out := cmd.OutOrStdout()
			chunk, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}
			for _, line := range chunk.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, chunk.Offset, 0, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	cmd.Flags().StringVar(&file, "file", "", "Log file to read (default: newest in paths.log_dir)")
	return cmd
}
