package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bloggen",
		Short: "bloggen generates and publishes AI-written blog posts.",
		Long: `bloggen is the content pipeline behind the blog: it discovers trending
keywords, generates topics and full articles through the text API, attaches
generated images and a relevant video, and maintains the site's index,
sitemap and LLM manifest files.`,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bloggen.yaml)")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewTrendsCmd())
	rootCmd.AddCommand(NewReindexCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewScheduleCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}
