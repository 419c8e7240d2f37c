package content

import (
	"fmt"
	"strings"
)

// ImagePlaceholderAttr is the attribute marking spots where inline images may
// later be generated. The image generator scans for it after content exists.
const ImagePlaceholderAttr = "data-description"

// VideoPlaceholder marks where a relevant video embed will be substituted.
const VideoPlaceholder = "<!-- VIDEO_PLACEHOLDER -->"

// BuildContentPrompt assembles the structured prompt for full article
// generation: formatting rules, keyword density target, table/list/heading
// requirements, image placeholder markers and internal-link instructions.
func BuildContentPrompt(title, category string, minWords, maxWords int, keywords []string, internalLinks []LinkSuggestion) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`Write a complete blog post in HTML for the title: "%s"
Category: %s

CONTENT REQUIREMENTS:
- Length: %d to %d words.
- Audience: curious general readers; clear, confident, practical tone.
- Open with a hook paragraph, no "Introduction" heading.
- Include exactly one HTML comparison or data table (<table> with <thead> and <tbody>).
- Include at least one bulleted or numbered list.
- Use <h2> section headings and <h3> subsections; never <h1>.
- End with a short actionable conclusion section.
`, title, category, minWords, maxWords))

	if len(keywords) > 0 {
		sb.WriteString(fmt.Sprintf(`
KEYWORDS:
- Work these phrases in naturally: %s.
- Target roughly 1-2%% keyword density; never stuff keywords.
`, strings.Join(keywords, ", ")))
	}

	sb.WriteString(fmt.Sprintf(`
IMAGE PLACEHOLDERS:
- Insert 2-4 figure placeholders where an illustrative photo would help, using exactly this markup:
  <div class="image-placeholder" %s="short description of the desired photo"></div>
`, ImagePlaceholderAttr))

	if len(internalLinks) >= minInternalLinks {
		sb.WriteString("\nINTERNAL LINKS:\n")
		for _, link := range internalLinks {
			sb.WriteString(fmt.Sprintf("- Link the phrase that fits best to /blog/%s (article: %q).\n", link.Slug, link.Title))
		}
		sb.WriteString("- Use natural anchor text inside existing sentences; do not add a links section.\n")
	}

	sb.WriteString(`
FORMAT:
- Return ONLY the HTML body markup. No <html>, <head> or <body> tags.
- No markdown, no code fences, no commentary before or after the HTML.`)

	return sb.String()
}

// buildPreviewPrompt asks for a short plain-text teaser.
func buildPreviewPrompt(content string) string {
	return fmt.Sprintf(`Write a 50-80 word teaser for the following blog post. Plain text only,
no HTML, no headings, no quotes around the text. It should make a reader want to click through.

Post content:
%s`, truncateForPrompt(content, 6000))
}

// buildMetaPrompt asks for an SEO meta description.
func buildMetaPrompt(title, content string) string {
	return fmt.Sprintf(`Write an SEO meta description for the blog post titled "%s".
Constraints: 120-155 characters, active voice, includes the main topic, no quotes.
Return only the description.

Post content:
%s`, title, truncateForPrompt(content, 4000))
}

// buildVideoQueryPrompt asks for a short video search query.
func buildVideoQueryPrompt(title string) string {
	return fmt.Sprintf(`Suggest a short YouTube search query (3-6 words) to find an educational video
that complements a blog post titled "%s". Return only the query, no quotes.`, title)
}

func truncateForPrompt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
