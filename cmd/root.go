package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "session-manager",
	Short: "Folder-backed TTRPG session playback tool",
	Long: `Session manager turns a folder of markdown, image and audio files into a
structured game session: parts with plan documents, images, support docs and
playlists, plus live playback with crossfades and full-text search.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
