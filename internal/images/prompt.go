package images

import (
	"fmt"
	"math/rand"
	"strings"
)

// Fixed option sets the builder draws style and composition choices from.
// Selection is uniform over the injected rng, so a seeded rng makes prompt
// construction fully deterministic.
var (
	styleOptions = []string{
		"natural daylight, soft shadows",
		"golden hour lighting, warm tones",
		"bright studio lighting, clean background",
		"moody editorial lighting, high contrast",
	}
	compositionOptions = []string{
		"wide establishing shot",
		"close-up with shallow depth of field",
		"overhead flat lay composition",
		"eye-level three-quarter view",
	}
)

// comparisonTriggers switch the prompt into before/after framing.
var comparisonTriggers = []string{"transformation", "comparison", "before and after", "vs"}

// PromptBuilder assembles image-generation prompts. Given the same rng seed
// and inputs it always produces the same prompt string.
type PromptBuilder struct {
	rng *rand.Rand
}

// NewPromptBuilder creates a prompt builder drawing random selections from rng.
func NewPromptBuilder(rng *rand.Rand) *PromptBuilder {
	return &PromptBuilder{rng: rng}
}

// Build composes the full generation prompt from the post title, category,
// optional extra context and the overlay flag.
func (b *PromptBuilder) Build(title, category, context string, overlay bool) string {
	var parts []string

	parts = append(parts, "Photorealistic, high-resolution photograph, professional magazine quality.")

	subject := title
	if context != "" {
		subject = fmt.Sprintf("%s (%s)", title, context)
	}

	if hasComparisonTrigger(title + " " + context) {
		parts = append(parts, fmt.Sprintf("Split-frame before-and-after comparison illustrating: %s.", subject))
	} else {
		parts = append(parts, fmt.Sprintf("Subject: %s.", subject))
	}

	if guidance := categoryGuidance(category, title+" "+context); guidance != "" {
		parts = append(parts, guidance)
	}

	if overlay {
		parts = append(parts, fmt.Sprintf(`Include a bold text banner reading exactly "%s" in white letters on a black strip across the lower third.`, title))
	} else {
		parts = append(parts, "Strictly no text, no letters, no words, no watermarks anywhere in the image.")
	}

	style := styleOptions[b.rng.Intn(len(styleOptions))]
	composition := compositionOptions[b.rng.Intn(len(compositionOptions))]
	parts = append(parts, fmt.Sprintf("Style: %s. Composition: %s.", style, composition))

	return strings.Join(parts, " ")
}

// NegativePrompt assembles the exclusion clause. When no text overlay is
// wanted the typography exclusions are appended.
func (b *PromptBuilder) NegativePrompt(overlay bool) string {
	negative := "disturbing imagery, gore, unrealistic anatomy, distorted faces, extra limbs, low quality, blurry"
	if !overlay {
		negative += ", text, words, letters, numbers, typography, captions, labels, logos, watermarks, signage"
	}
	return negative
}

func hasComparisonTrigger(s string) bool {
	lower := strings.ToLower(s)
	for _, trigger := range comparisonTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// categoryGuidance returns subject guidance for known categories, refined by
// keywords found in the text.
func categoryGuidance(category, text string) string {
	lower := strings.ToLower(text)
	switch strings.ToLower(category) {
	case "nutrition":
		if strings.Contains(lower, "sugar") {
			return "Show fresh whole foods contrasted with processed sugary products on a kitchen counter."
		}
		return "Show vibrant fresh ingredients and balanced meals on a natural wood surface."
	case "fitness":
		if strings.Contains(lower, "running") {
			return "Show a runner mid-stride on an outdoor trail at sunrise."
		}
		return "Show an athletic person exercising in a bright, modern gym setting."
	case "wellness":
		return "Show a calm lifestyle scene with natural light, plants and a relaxed atmosphere."
	case "sleep":
		return "Show a serene, dimly lit bedroom with inviting bedding."
	default:
		return ""
	}
}
