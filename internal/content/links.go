package content

import (
	"sort"
	"strings"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
)

// minInternalLinks is the minimum number of scoring candidates required
// before the prompt includes a linking instruction at all.
const minInternalLinks = 2

// substringBonus is added when one title fully contains the other.
const substringBonus = 2

// LinkSuggestion is a published post proposed as an internal link target.
type LinkSuggestion struct {
	Title string
	Slug  string
	Score int
}

// SelectInternalLinks scores every published post against the candidate
// title by shared significant words (length > 3), with a bonus when one
// title is a substring of the other, and returns the top 3. Fewer than 2
// scoring candidates yields nil: below that the linking instruction is
// omitted entirely.
func SelectInternalLinks(title string, published []core.Post) []LinkSuggestion {
	titleWords := wordSet(title)
	titleLower := strings.ToLower(title)

	var suggestions []LinkSuggestion
	for _, post := range published {
		score := 0
		for word := range wordSet(post.Title) {
			if titleWords[word] {
				score++
			}
		}

		postLower := strings.ToLower(post.Title)
		if strings.Contains(titleLower, postLower) || strings.Contains(postLower, titleLower) {
			score += substringBonus
		}

		if score > 0 {
			suggestions = append(suggestions, LinkSuggestion{
				Title: post.Title,
				Slug:  post.Slug,
				Score: score,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	if len(suggestions) < minInternalLinks {
		return nil
	}
	return suggestions
}

func wordSet(s string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,:;!?\"'()")
		if len(word) > 3 {
			words[word] = true
		}
	}
	return words
}
