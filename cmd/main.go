package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"talecast/internal/cli/scheme/colours"
	"talecast/internal/config"
	"talecast/internal/studio"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {

	config.SetDefaults()

	app := studio.NewStudio()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		app.Cancel()
		app.Stop()
		fmt.Println("\n" + colours.Warning.Sprint("👋 Goodbye! Keep telling stories! 🎭"))
		os.Exit(0)
	}()

	rootCmd := &cobra.Command{
		Use:   "talecast",
		Short: "🎭 A story studio with a voice",
		Long: `
┌─────────────────────────────────────┐
│  🎭 Welcome to Talecast! 🎙️        │
│  Write stories, cast voices,        │
│  and hear them performed ✨         │
└─────────────────────────────────────┘

Talecast lets you write multi-character dialogue, assign each character
a synthesized voice, and play or export the performed story. 🎧
		`,
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
		},
	}

	// New story command
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "✨ Start a new story",
		Long:  "Create a fresh story and open the interactive editor",
		Run:   app.NewStory,
	}

	// Open command
	openCmd := &cobra.Command{
		Use:   "open [story-id]",
		Short: "📖 Open a saved story",
		Long:  "Open a story by its ID or select from a list",
		Run:   app.OpenStory,
	}

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "📋 List saved stories",
		Long:  "Display all saved stories, most recently edited first",
		Run:   app.ListStories,
	}

	// Delete command
	deleteCmd := &cobra.Command{
		Use:   "delete <story-id>",
		Short: "🗑️ Delete a saved story",
		Long:  "Remove a saved story by its ID",
		Run:   app.DeleteStory,
	}

	// Voices command
	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 List available voices",
		Long:  "Show the synthesis voices characters can be cast with",
		Run:   app.ShowVoices,
	}

	rootCmd.AddCommand(newCmd, openCmd, listCmd, deleteCmd, voicesCmd)

	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}

// Configuration management with Viper
func init() {
	viper.SetConfigName("talecast")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.talecast")
	viper.AddConfigPath(".")

	viper.ReadInConfig()
}
