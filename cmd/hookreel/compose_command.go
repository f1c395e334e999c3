package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hookreel/internal/clip"
	"hookreel/internal/composition"
	"hookreel/internal/generation"
	"hookreel/internal/jobs"
	"hookreel/internal/selection"
	"hookreel/internal/workflow"
)

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var flags generationFlags
	var (
		hookPick string
		demoPick string
		rounds   int
		captions []string
		fontSize int
		removals []string
		reorders []string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Generate variants, choose hooks and demos, and render the composition",
		Long: `Generate variants, then choose a hook and a demo from them. With --rounds N
the generate-and-choose step repeats N times and every accepted pair is
appended to the same clip sequence.

Without --hook/--demo the choice is interactive: enter an option number or id,
"b" to return to the hook choice, or "q" to cancel the round. --hook and --demo
numbers refer to the generated option list, so --demo never shifts when the
hook is removed from the demo choices.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if rounds < 1 {
				return fmt.Errorf("--rounds must be at least 1, got %d", rounds)
			}
			req := flags.request(cfg)
			moves, err := parseReorders(reorders)
			if err != nil {
				return err
			}
			svc, err := ctx.buildServices()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			composer := svc.NewComposer()
			for round := 1; round <= rounds; round++ {
				if rounds > 1 {
					fmt.Fprintf(out, "Round %d of %d\n", round, rounds)
				}
				accepted, err := runRound(cmd, out, in, composer, req, hookPick, demoPick)
				if err != nil {
					return err
				}
				if !accepted {
					break
				}
			}
			if composer.Sequence().Len() == 0 {
				fmt.Fprintln(out, "Selection cancelled")
				return nil
			}

			for _, id := range removals {
				if err := composer.Sequence().Remove(strings.TrimSpace(id)); err != nil {
					return err
				}
			}
			for _, move := range moves {
				if err := composer.Sequence().Reorder(move[0], move[1]); err != nil {
					return err
				}
			}
			writeSequence(out, composer.Sequence().Snapshot())
			if composer.Sequence().Len() == 0 {
				return errors.New("nothing to compose: every clip was removed")
			}

			lock, err := jobs.AcquireCompositionLock(cfg.LockDir(), composer.ID(), "")
			if err != nil {
				return err
			}
			defer lock.Release()

			job, err := composer.Compose(cmd.Context(), clip.CaptionSpec{Captions: captions, FontSize: fontSize})
			if err != nil {
				return err
			}
			if jsonOut {
				if err := writeJSON(cmd, toJobJSON(job)); err != nil {
					return err
				}
			} else {
				writeJobDetail(out, job, shouldColorize(out))
			}
			if job.Status == composition.StatusFailed {
				return fmt.Errorf("job %s failed; resubmit with 'hookreel jobs retry %s'", shortID(job.ID), shortID(job.ID))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&hookPick, "hook", "", "Hook option number or id (skips the interactive prompt)")
	cmd.Flags().StringVar(&demoPick, "demo", "", "Demo option number in the generated list, or id (skips the interactive prompt)")
	cmd.Flags().IntVar(&rounds, "rounds", 1, "Generate-and-choose rounds appended to one sequence")
	cmd.Flags().StringArrayVar(&captions, "caption", nil, "Caption text (repeatable; drafted by [captions_llm] or taken from the prompt when omitted)")
	cmd.Flags().IntVar(&fontSize, "font-size", 0, "Caption font size (defaults to pipeline.default_font_size)")
	cmd.Flags().StringArrayVar(&removals, "remove", nil, "Remove a clip id from the sequence before composing (repeatable)")
	cmd.Flags().StringArrayVar(&reorders, "reorder", nil, "Move a clip before composing, as from:to (0-based, repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the job as JSON")
	return cmd
}

// runRound generates one set of variants and drives its selection. accepted
// is false when the round was cancelled.
func runRound(cmd *cobra.Command, out io.Writer, in *bufio.Scanner, composer *workflow.Composer, req generation.Request, hookPick, demoPick string) (bool, error) {
	result, err := composer.Generate(cmd.Context(), req)
	if err != nil {
		return false, err
	}
	if result.Partial() {
		fmt.Fprintf(out, "%d of %d variation(s) failed\n", result.Failed, req.VariantCount)
	}

	session := composer.Session()
	if err := runSelection(in, out, session, hookPick, demoPick); err != nil {
		return false, err
	}
	if session.Phase() == selection.PhaseCancelled {
		if composer.Sequence().Len() > 0 {
			fmt.Fprintln(out, "Round cancelled")
		}
		return false, nil
	}
	if _, err := composer.Accept(); err != nil {
		return false, err
	}
	label := composer.Label()
	fmt.Fprintf(out, "Selected %s\n%s\n", label.Name, label.Description)
	return true, nil
}

func writeSequence(out io.Writer, clips []clip.Variant) {
	names := make([]string, 0, len(clips))
	for i, c := range clips {
		names = append(names, fmt.Sprintf("%d:%s", i, c.ID))
	}
	fmt.Fprintf(out, "Sequence (%d clip(s)): %s\n", len(clips), strings.Join(names, " "))
}

// runSelection drives session to a terminal phase. Flag picks are used once
// for their phase and numbered against the full option list; everything else
// is read line by line from in and numbered against the options shown.
func runSelection(in *bufio.Scanner, out io.Writer, session *selection.Session, hookPick, demoPick string) error {
	all := session.Options()
	for !session.Phase().Terminal() {
		options := session.AvailableOptions()
		phase := session.Phase()

		var pick string
		switch phase {
		case selection.PhaseAwaitingHook:
			pick, hookPick = strings.TrimSpace(hookPick), ""
		case selection.PhaseAwaitingDemo:
			pick, demoPick = strings.TrimSpace(demoPick), ""
		}
		fromFlag := pick != ""

		if !fromFlag {
			writePrompt(out, session, options)
			if !in.Scan() {
				if err := in.Err(); err != nil {
					return fmt.Errorf("read selection: %w", err)
				}
				return errors.New("selection aborted: no more input")
			}
			pick = strings.TrimSpace(in.Text())
		}

		switch strings.ToLower(pick) {
		case "":
			continue
		case "q":
			if err := session.Cancel(); err != nil {
				return err
			}
			continue
		case "b":
			if err := session.Back(); err != nil {
				if fromFlag {
					return err
				}
				fmt.Fprintln(out, err)
			}
			continue
		}

		choices := options
		if fromFlag {
			choices = all
		}
		chosen, err := resolvePick(choices, pick)
		if err == nil {
			if phase == selection.PhaseAwaitingHook {
				err = session.SelectHook(chosen)
			} else {
				err = session.SelectDemo(chosen)
			}
		}
		if err != nil {
			if fromFlag {
				return err
			}
			fmt.Fprintln(out, err)
		}
	}
	return nil
}

func writePrompt(out io.Writer, session *selection.Session, options []clip.Variant) {
	fmt.Fprintln(out, renderVariants(options))
	switch session.Phase() {
	case selection.PhaseAwaitingHook:
		if hook, ok := session.Hook(); ok {
			fmt.Fprintf(out, "Previous hook: %s\n", hook.DisplayName())
		}
		fmt.Fprintf(out, "Choose hook [1-%d], q to cancel: ", len(options))
	case selection.PhaseAwaitingDemo:
		hook, _ := session.Hook()
		fmt.Fprintf(out, "Hook: %s\n", hook.DisplayName())
		fmt.Fprintf(out, "Choose demo [1-%d], b to go back, q to cancel: ", len(options))
	}
}

// resolvePick accepts a 1-based option number or an option id.
func resolvePick(options []clip.Variant, pick string) (clip.Variant, error) {
	if n, err := strconv.Atoi(pick); err == nil {
		if n < 1 || n > len(options) {
			return clip.Variant{}, fmt.Errorf("option %d is out of range (1-%d)", n, len(options))
		}
		return options[n-1], nil
	}
	for _, option := range options {
		if option.ID == pick {
			return option, nil
		}
	}
	// Unknown ids still go to the session so it reports the selection error.
	return clip.Variant{ID: pick}, nil
}

func parseReorders(values []string) ([][2]int, error) {
	moves := make([][2]int, 0, len(values))
	for _, value := range values {
		from, to, ok := strings.Cut(strings.TrimSpace(value), ":")
		if !ok {
			return nil, fmt.Errorf("invalid --reorder %q: expected from:to", value)
		}
		fromIdx, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("invalid --reorder %q: %w", value, err)
		}
		toIdx, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("invalid --reorder %q: %w", value, err)
		}
		moves = append(moves, [2]int{fromIdx, toIdx})
	}
	return moves, nil
}
