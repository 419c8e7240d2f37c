package core

import "time"

// TrendSnapshot is a point-in-time capture of keyword and trend signals
// used to bias topic selection. It is rewritten wholesale on each discovery run.
type TrendSnapshot struct {
	ID                  string    `json:"id"`                   // Unique identifier for the snapshot
	Timestamp           time.Time `json:"timestamp"`            // When the snapshot was taken
	TrendingKeywords    []string  `json:"trending_keywords"`    // Keywords currently trending
	RisingQueries       []string  `json:"rising_queries"`       // Search queries gaining momentum
	KeywordIdeas        []string  `json:"keyword_ideas"`        // Long-tail keyword phrases
	SemanticSuggestions []string  `json:"semantic_suggestions"` // Semantically related variants
}

// Topic is a selected subject for a new blog post. Topics are not persisted
// on their own; a successful generation folds the topic into a Post.
type Topic struct {
	Title           string   `json:"title"`            // Blog post title
	Slug            string   `json:"slug"`             // URL-safe identifier, unique across all posts
	Category        string   `json:"category"`         // Content category (e.g. "Nutrition")
	MetaDescription string   `json:"meta_description"` // SEO meta description
	Tags            []string `json:"tags"`             // Tags derived from the chosen keywords
	Keywords        []string `json:"keywords"`         // Keywords the topic was built from
}

// Post is a single generated blog article with its metadata and HTML body.
type Post struct {
	Title            string     `json:"title"`                    // Post title
	Slug             string     `json:"slug"`                     // URL-safe identifier, unique across all posts
	Content          string     `json:"content,omitempty"`        // Full HTML body (omitted in index entries)
	Preview          string     `json:"preview"`                  // Short plain-text teaser
	MetaDescription  string     `json:"meta_description"`         // SEO meta description (<= 155 chars)
	Author           string     `json:"author"`                   // Author display name
	Category         string     `json:"category"`                 // Content category
	Tags             []string   `json:"tags"`                     // Tags, trimmed to the global top set on reindex
	FeaturedImage    string     `json:"featured_image,omitempty"` // Path or URL of the featured image
	RelatedPostSlugs []string   `json:"related_post_slugs"`       // Slugs of related posts (best effort, <= 4)
	PublishDate      time.Time  `json:"publish_date"`             // Original publication time
	ModifiedDate     *time.Time `json:"modified_date,omitempty"`  // Last modification time, if any
	FilePath         string     `json:"file_path"`                // Post file path relative to the content dir
}

// IndexManifest is the single aggregated listing of all posts. It is rebuilt
// wholesale by scanning the content directory and is what the website reads.
type IndexManifest struct {
	LastUpdated time.Time `json:"last_updated"` // When the index was last rebuilt
	Posts       []Post    `json:"posts"`        // Post summaries, newest first, content omitted
}

// GeneratedImage describes one image produced by the image-generation API.
type GeneratedImage struct {
	ID        string `json:"id"`         // Identifier assigned to the image
	URL       string `json:"url"`        // Remote URL returned by the API
	LocalPath string `json:"local_path"` // Where the image was persisted, empty if not downloaded
}

// VideoResult is a single candidate from the video-search API.
type VideoResult struct {
	VideoID string `json:"video_id"` // Provider video identifier
	Title   string `json:"title"`    // Video title used for relevance scoring
}
