package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"hookreel/internal/clip"
	"hookreel/internal/storage"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var (
		reaction string
		demo     string
		page     int
		limit    int
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List published videos from the storage gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Storage.Enabled {
				return errors.New("storage gateway is disabled; set storage.enabled = true")
			}

			var filter storage.Filter
			if reaction != "" {
				if filter.Reaction, err = clip.ParseReactionType(reaction); err != nil {
					return err
				}
			}
			if demo != "" {
				if filter.Demo, err = clip.ParseDemoType(demo); err != nil {
					return err
				}
			}

			svc, err := ctx.buildServices()
			if err != nil {
				return err
			}
			result, err := svc.Storage.ListVideos(cmd.Context(), filter, page, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No videos")
				return nil
			}
			rows := make([][]string, 0, len(result.Items))
			for _, item := range result.Items {
				rows = append(rows, []string{
					item.ID.String(),
					item.Name,
					item.Reaction.Label(),
					item.Demo.Label(),
					item.URL,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{numCol("ID"), textCol("Name"), col("Reaction"), col("Demo"), col("URL")},
				rows,
			))
			fmt.Fprintf(out, "Page %d/%d (%d total)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&reaction, "reaction", "r", "", "Filter by reaction type")
	cmd.Flags().StringVarP(&demo, "demo-type", "d", "", "Filter by demo type")
	cmd.Flags().IntVar(&page, "page", storage.DefaultPage, "Page number")
	cmd.Flags().IntVar(&limit, "limit", storage.DefaultLimit, "Items per page")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
