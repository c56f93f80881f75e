package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

type gateResultPayload struct {
	State          string  `json:"state"`
	Outcome        string  `json:"outcome"`
	Score          float64 `json:"score"`
	AttemptIndex   int     `json:"attempt_index"`
	AttemptsLeft   int     `json:"attempts_left"`
	RevealedAnswer string  `json:"revealed_answer"`
}

func newAnswerCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var reference string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "answer <postID> <text>",
		Short: "Submit an answer to a post's gate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, text := args[0], args[1]
			if strings.TrimSpace(reference) == "" {
				return fmt.Errorf("--reference is required")
			}

			var result gateResultPayload
			err := ctx.doJSON("POST", "/api/posts/"+url.PathEscape(postID)+"/answer", map[string]string{
				"user_id":   userID,
				"text":      text,
				"reference": reference,
			}, &result)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			renderGateResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "local", "User identifier for the gating session")
	cmd.Flags().StringVarP(&reference, "reference", "r", "", "Reference answer the submission is scored against")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the raw JSON result")
	return cmd
}

func renderGateResult(cmd *cobra.Command, result gateResultPayload) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	switch result.State {
	case "correct":
		fmt.Fprintln(out, renderStatusLine("Answer", statusOK, fmt.Sprintf("correct (score %.2f)", result.Score), colorize))
		fmt.Fprintln(out, "Recording unlocked for this post.")
	case "incorrect_retry":
		fmt.Fprintln(out, renderStatusLine("Answer", statusWarn, fmt.Sprintf("not close enough (score %.2f)", result.Score), colorize))
		fmt.Fprintf(out, "Attempts left: %d\n", result.AttemptsLeft)
	case "exhausted":
		fmt.Fprintln(out, renderStatusLine("Answer", statusError, fmt.Sprintf("attempts exhausted (score %.2f)", result.Score), colorize))
		fmt.Fprintf(out, "The answer was: %s\n", result.RevealedAnswer)
	default:
		fmt.Fprintln(out, renderStatusLine("Answer", statusInfo, result.State, colorize))
	}
}
