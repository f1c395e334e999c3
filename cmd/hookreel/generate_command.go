package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hookreel/internal/clip"
	"hookreel/internal/config"
	"hookreel/internal/generation"
)

type generationFlags struct {
	source   string
	prompt   string
	reaction string
	demo     string
	count    int
}

func (f *generationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "Source demo video URL")
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "Prompt describing the reaction")
	cmd.Flags().StringVarP(&f.reaction, "reaction", "r", "", fmt.Sprintf("Reaction type (%s)", joinReactionTypes()))
	cmd.Flags().StringVarP(&f.demo, "demo-type", "d", "", fmt.Sprintf("Demo type (%s)", joinDemoTypes()))
	cmd.Flags().IntVarP(&f.count, "count", "n", 0, "Number of variants (defaults to generator.default_variant_count)")
}

// request builds a generation request. Enum values are normalized here; the
// generation service performs the validation.
func (f *generationFlags) request(cfg *config.Config) generation.Request {
	req := generation.Request{
		SourceURL:    strings.TrimSpace(f.source),
		Prompt:       strings.TrimSpace(f.prompt),
		Reaction:     clip.ReactionType(strings.ToLower(strings.TrimSpace(f.reaction))),
		Demo:         clip.DemoType(strings.ToLower(strings.TrimSpace(f.demo))),
		VariantCount: f.count,
	}
	if req.VariantCount == 0 && cfg != nil {
		req.VariantCount = cfg.Generator.DefaultVariantCount
	}
	return req
}

func joinReactionTypes() string {
	values := make([]string, 0, len(clip.ReactionTypes()))
	for _, r := range clip.ReactionTypes() {
		values = append(values, string(r))
	}
	return strings.Join(values, ", ")
}

func joinDemoTypes() string {
	values := make([]string, 0, len(clip.DemoTypes()))
	for _, d := range clip.DemoTypes() {
		values = append(values, string(d))
	}
	return strings.Join(values, ", ")
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var flags generationFlags
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate reaction variants for a demo video",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req := flags.request(cfg)
			svc, err := ctx.buildServices()
			if err != nil {
				return err
			}

			result, err := svc.Generation.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, struct {
					Options       []clip.Variant `json:"options"`
					OriginalVideo clip.Source    `json:"originalVideo"`
					Failed        int            `json:"failed"`
				}{result.Variants, result.Original, result.Failed})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderVariants(result.Variants))
			fmt.Fprintf(out, "Original: %s (%s)\n", result.Original.Name, result.Original.URL)
			if result.Partial() {
				fmt.Fprintf(out, "%d of %d variation(s) failed\n", result.Failed, req.VariantCount)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
