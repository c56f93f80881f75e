package main

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

type mergeJobPayload struct {
	PostID       string  `json:"post_id"`
	Status       string  `json:"status"`
	Percent      float64 `json:"percent"`
	ClipCount    int     `json:"clip_count"`
	ArtifactPath string  `json:"artifact_path"`
	Error        string  `json:"error"`
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var statusOnly bool
	var noWait bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "merge <postID>",
		Short: "Merge all clips of a post into a single MP4",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/posts/" + url.PathEscape(args[0]) + "/merge"
			out := cmd.OutOrStdout()

			var job mergeJobPayload
			if statusOnly {
				if err := ctx.doJSON("GET", path, nil, &job); err != nil {
					return err
				}
			} else {
				if err := ctx.doJSON("POST", path, nil, &job); err != nil {
					return err
				}
				if job.Status == "idle" {
					fmt.Fprintln(out, "No clips stored for this post; nothing to merge.")
					return nil
				}
				if !noWait {
					var err error
					job, err = pollMerge(ctx, path, out)
					if err != nil {
						return err
					}
				}
			}

			if jsonOut {
				return writeJSON(cmd, job)
			}
			renderMergeJob(cmd, job)
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only report the current merge status")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Trigger the merge without waiting for completion")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the job snapshot as JSON")
	return cmd
}

func pollMerge(ctx *commandContext, path string, out io.Writer) (mergeJobPayload, error) {
	var job mergeJobPayload
	lastStatus := ""
	for {
		if err := ctx.doJSON("GET", path, nil, &job); err != nil {
			return job, err
		}
		if job.Status != lastStatus {
			fmt.Fprintf(out, "%s...\n", job.Status)
			lastStatus = job.Status
		}
		if job.Status == "completed" || job.Status == "failed" || job.Status == "idle" {
			return job, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func renderMergeJob(cmd *cobra.Command, job mergeJobPayload) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	switch job.Status {
	case "completed":
		fmt.Fprintln(out, renderStatusLine("Merge", statusOK, fmt.Sprintf("%d clips merged", job.ClipCount), colorize))
		fmt.Fprintf(out, "Artifact: %s\n", job.ArtifactPath)
	case "failed":
		fmt.Fprintln(out, renderStatusLine("Merge", statusError, job.Error, colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Merge", statusInfo, fmt.Sprintf("%s (%.0f%%)", job.Status, job.Percent), colorize))
	}
}
