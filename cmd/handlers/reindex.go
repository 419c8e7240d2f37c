package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/index"
)

// NewReindexCmd creates the reindex command.
func NewReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the blog index, sitemap and LLM manifest from the post files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			builder := index.NewBuilder(cfg.App.ContentDir, cfg.Index, cfg.Content.PreviewLength)
			manifest, err := builder.Rebuild()
			if err != nil {
				return err
			}

			if err := index.UpdateSitemap(cfg.Index.SitemapFile, cfg.App.SiteBaseURL, manifest.Posts); err != nil {
				return err
			}
			if err := index.UpdateLLMManifest(cfg.Index.LLMManifest, cfg.App.SiteBaseURL, manifest.Posts); err != nil {
				return err
			}

			fmt.Printf("index rebuilt with %d posts\n", len(manifest.Posts))
			return nil
		},
	}
}
