package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
)

const sitemapSkeleton = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
</urlset>
`

// UpdateSitemap inserts a <url> entry for every post whose URL is not yet
// present. Entries are append-only: stale URLs are never removed here.
func UpdateSitemap(path, baseURL string, posts []core.Post) error {
	content, err := readOrInit(path, sitemapSkeleton)
	if err != nil {
		return err
	}

	added := 0
	for _, post := range posts {
		postURL := fmt.Sprintf("%s/blog/%s", strings.TrimRight(baseURL, "/"), post.Slug)
		if strings.Contains(content, postURL) {
			continue
		}
		entry := fmt.Sprintf("  <url>\n    <loc>%s</loc>\n    <lastmod>%s</lastmod>\n  </url>\n",
			postURL, post.PublishDate.Format("2006-01-02"))
		content = strings.Replace(content, "</urlset>", entry+"</urlset>", 1)
		added++
	}

	if added == 0 {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write sitemap: %w", err)
	}
	logger.Info("Sitemap updated", "added", added)
	return nil
}

const llmManifestHeader = `# Blog content guide for language models

This site publishes AI-assisted articles. Canonical post URLs are listed below.

`

// UpdateLLMManifest appends a line per post to the LLM-guidance text file,
// skipping posts whose URL already appears. Append-only like the sitemap.
func UpdateLLMManifest(path, baseURL string, posts []core.Post) error {
	content, err := readOrInit(path, llmManifestHeader)
	if err != nil {
		return err
	}

	added := 0
	for _, post := range posts {
		postURL := fmt.Sprintf("%s/blog/%s", strings.TrimRight(baseURL, "/"), post.Slug)
		if strings.Contains(content, postURL) {
			continue
		}
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += fmt.Sprintf("- %s: %s\n", post.Title, postURL)
		added++
	}

	if added == 0 {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write LLM manifest: %w", err)
	}
	logger.Info("LLM manifest updated", "added", added)
	return nil
}

func readOrInit(path, skeleton string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		return skeleton, nil
	}
	return string(data), nil
}
