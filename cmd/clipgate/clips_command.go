package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type clipPayload struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	OwnerID   string    `json:"owner_id"`
	Kind      string    `json:"kind"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	MIME      string    `json:"mime"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

type clipListPayload struct {
	Clips []clipPayload `json:"clips"`
}

func newClipsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "clips <postID>",
		Short: "List the clips stored for a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var listing clipListPayload
			if err := ctx.doJSON("GET", "/api/posts/"+url.PathEscape(args[0])+"/clips", nil, &listing); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, listing)
			}
			if len(listing.Clips) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clips stored for this post.")
				return nil
			}

			rows := make([][]string, 0, len(listing.Clips))
			for i, clip := range listing.Clips {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					clip.ID,
					clip.Kind,
					clip.Format,
					formatBytes(clip.SizeBytes),
					clip.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "ID", "Kind", "Format", "Size", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the listing as JSON")

	cmd.AddCommand(newClipUploadCommand(ctx))
	return cmd
}

func newClipUploadCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var kind string

	cmd := &cobra.Command{
		Use:   "upload <postID> <file>",
		Short: "Upload an existing media file as a clip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read input file: %w", err)
			}

			path := fmt.Sprintf("/api/posts/%s/clips?user_id=%s&kind=%s",
				url.PathEscape(args[0]), url.QueryEscape(userID), url.QueryEscape(kind))
			var clip clipPayload
			if err := ctx.upload(path, payload, &clip); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s clip %s (%d bytes) at %s\n", clip.Kind, clip.ID, clip.SizeBytes, clip.URL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "local", "User identifier for gate checks and clip ownership")
	cmd.Flags().StringVarP(&kind, "kind", "k", "video", "Clip kind: audio or video")
	return cmd
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
