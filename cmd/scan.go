package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/FumingPower3925/ttrpg-session-manager/config"
	"github.com/FumingPower3925/ttrpg-session-manager/services"
	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

var scanOutputPath string

var scanCmd = &cobra.Command{
	Use:   "scan [folder]",
	Short: "Auto-detect session structure in a folder",
	Long: `Scans a session folder using the conventional layout (plan/, images/,
music/, characters/, threats/, maps/ with act<N> subfolders) and prints the
detected configuration. With --out, the configuration is exported as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootPath := config.GetSessionRoot()
		if len(args) == 1 {
			rootPath = args[0]
		}
		return runScan(rootPath)
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanOutputPath, "out", "o", "", "export detected config to this JSON file")
	rootCmd.AddCommand(scanCmd)
}

func runScan(rootPath string) error {
	store, err := services.NewDirStore(rootPath)
	if err != nil {
		return fmt.Errorf("cannot open session folder: %w", err)
	}

	result, err := services.NewScanner(store).Scan()
	if err != nil {
		return err
	}
	cfg := result.Config

	if len(cfg.Parts) == 0 {
		fmt.Println("Nothing detected: the folder does not follow the session layout.")
		return nil
	}
	if !result.Plausible {
		fmt.Println("Note: folder structure only partially matches the expected layout.")
	}

	printSummary(store, cfg)

	if scanOutputPath != "" {
		data, err := services.ExportConfig(cfg)
		if err != nil {
			return err
		}
		if err := os.WriteFile(scanOutputPath, data, 0644); err != nil {
			return fmt.Errorf("cannot write config: %w", err)
		}
		fmt.Printf("Config exported to %s\n", scanOutputPath)
	}
	return nil
}

func printSummary(store services.FileStore, cfg *types.SessionConfig) {
	fmt.Printf("Session folder: %s\n", cfg.RootFolderName)
	fmt.Printf("Parts detected: %d\n", len(cfg.Parts))

	// Count documents up front so the read pass can show progress.
	var docs []types.FileReference
	for _, part := range cfg.Parts {
		if part.PlanFile != nil {
			docs = append(docs, *part.PlanFile)
		}
		docs = append(docs, part.SupportDocs...)
	}

	bar := progressbar.Default(int64(len(docs)), "reading documents")
	readable := 0
	var hints []string
	for _, doc := range docs {
		content, err := store.ReadText(doc.Path)
		_ = bar.Add(1)
		if err != nil {
			continue
		}
		readable++
		if hint, ok := services.ExtractDurationHint(content); ok {
			if hint.MinMinutes == hint.MaxMinutes {
				hints = append(hints, fmt.Sprintf("%s: ~%d min", doc.Name, hint.MinMinutes))
			} else {
				hints = append(hints, fmt.Sprintf("%s: %d-%d min", doc.Name, hint.MinMinutes, hint.MaxMinutes))
			}
		}
	}

	for _, part := range cfg.Parts {
		fmt.Printf("  %s: %d images, %d docs, %d ambient tracks, %d event playlists\n",
			part.Name, len(part.Images), len(part.SupportDocs), len(part.AmbientPlaylist), len(part.EventPlaylists))
	}
	fmt.Printf("Readable documents: %d/%d\n", readable, len(docs))

	if len(cfg.PlayerCharacterNames) > 0 {
		fmt.Printf("Player characters: %d\n", len(cfg.PlayerCharacterNames))
		for _, name := range cfg.PlayerCharacterNames {
			stats := cfg.PlayerCharacterStats[name]
			line := "  " + name
			if stats.MaxHP != nil {
				line += fmt.Sprintf("  HP %d", *stats.MaxHP)
			}
			if stats.DefenseScore != nil {
				line += fmt.Sprintf("  Def %d", *stats.DefenseScore)
			}
			fmt.Println(line)
		}
	}

	if len(hints) > 0 {
		fmt.Println("Duration hints:")
		for _, hint := range hints {
			fmt.Printf("  %s\n", hint)
		}
	}
}
