package main

import (
	"bufio"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

type recordStartPayload struct {
	HandleID string `json:"handle_id"`
	Kind     string `json:"kind"`
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var kind string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "record <postID>",
		Short: "Record a clip for a post via the daemon's capture device",
		Long: "Starts a capture on the daemon, waits for Enter, then stops the\n" +
			"capture. The clip is transcoded and stored under the post.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID := args[0]
			base := "/api/posts/" + url.PathEscape(postID)

			var start recordStartPayload
			err := ctx.doJSON("POST", base+"/record", map[string]string{
				"user_id": userID,
				"kind":    kind,
			}, &start)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recording %s... press Enter to stop.\n", start.Kind)
			reader := bufio.NewReader(cmd.InOrStdin())
			if _, err := reader.ReadString('\n'); err != nil {
				// Stdin closed; stop the capture anyway.
				fmt.Fprintln(cmd.ErrOrStderr(), "stdin closed, stopping capture")
			}

			var clip clipPayload
			err = ctx.doJSON("POST", base+"/record/stop", map[string]string{
				"user_id":   userID,
				"handle_id": start.HandleID,
			}, &clip)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, clip)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s clip %s (%d bytes) at %s\n", clip.Kind, clip.ID, clip.SizeBytes, clip.URL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "local", "User identifier for gate checks and clip ownership")
	cmd.Flags().StringVarP(&kind, "kind", "k", "video", "Capture kind: audio or video")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the stored clip as JSON")
	return cmd
}
