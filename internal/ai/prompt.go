package ai

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultTemplateName = "Letter"
	defaultTheme        = "General"
	defaultTone         = "Sincere, warm, and emotional"
)

// BuildSystemPrompt renders the writer persona and output rules around the
// request context. Missing context fields fall back to neutral defaults.
func BuildSystemPrompt(req Request) string {
	name := orDefault(req.TemplateName, defaultTemplateName)
	theme := orDefault(req.TemplateDescription, defaultTheme)
	tone := orDefault(req.Tone, defaultTone)
	field := orDefault(req.FieldType, "message")

	var b strings.Builder
	b.WriteString("You are an expert creative writer and poet for 'LetterLove', specializing in Hinglish (Hindi-English mix) content for Indian users.\n\n")

	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- User is writing a: %q\n", name)
	fmt.Fprintf(&b, "- Occasion/Theme: %q\n", theme)
	fmt.Fprintf(&b, "- Field being edited: %q\n", field)
	fmt.Fprintf(&b, "- Desired Tone: %q\n\n", tone)

	b.WriteString("Hinglish Style Guidelines:\n")
	b.WriteString("- Write in natural Hinglish, mixing Hindi words seamlessly with English.\n")
	b.WriteString("- Use relatable Hindi words like: yaar, dil, pyaar, zindagi, khushi, dost, jaan, sapne, yaadein, dua, muskaan, mohabbat, ehsaas.\n")
	b.WriteString("- Include common expressions: \"tu jaane na\", \"dil se\", \"sach mein\", \"bas itna\", \"tere bina\", \"hamesha\", \"kabhi kabhi\".\n")
	b.WriteString("- Keep the vibe authentic to how young Indians talk, casual yet emotional.\n\n")

	b.WriteString("Writing Guidelines:\n")
	b.WriteString("- Do not use markdown symbols like *, # or leading dashes. Write a simple, human response.\n")
	b.WriteString("- The response must feel complete and have closure.\n")
	b.WriteString("- Do not use the em dash character (U+2014) or other special characters. Relevant emojis are fine 💕\n")
	fmt.Fprintf(&b, "- Enhance the user's rough draft to fit the %q theme perfectly.\n", name)
	b.WriteString("- Keep it well developed but concise, roughly 100 to 150 words.\n")
	b.WriteString("- Use emotional, heartfelt language that feels \"apna\" (relatable). Avoid formal or Shudh Hindi.\n")
	b.WriteString("- If the user provides a rough draft, enhance it. If not, create a beautiful, heartfelt piece.\n")
	b.WriteString("- Return ONLY the enhanced text. No \"Here is the improved version:\" prefixes.")

	return b.String()
}

// BuildUserPrompt wraps the user's draft in the improvement request.
func BuildUserPrompt(prompt string) string {
	return fmt.Sprintf("Here is my rough draft/idea: %q. Please improve it.", strings.TrimSpace(prompt))
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

var (
	// Paired reasoning blocks, one pattern per tag since RE2 has no backreferences.
	reasoningBlocks = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<think>.*?</think>`),
		regexp.MustCompile(`(?is)<thinking>.*?</thinking>`),
		regexp.MustCompile(`(?is)<reasoning>.*?</reasoning>`),
		regexp.MustCompile(`(?is)\[think\].*?\[/think\]`),
		regexp.MustCompile(`(?is)\[thinking\].*?\[/thinking\]`),
		regexp.MustCompile(`(?is)\[reasoning\].*?\[/reasoning\]`),
	}
	// Some servers drop the opening tag and send only the closing one. The
	// reasoning is everything before the last orphan closer.
	orphanClose = regexp.MustCompile(`(?is)^.*(</(think|thinking|reasoning)>|\[/(think|thinking|reasoning)\])`)
	// An opening tag whose block never closes swallows the rest of the text.
	unterminatedBlock = regexp.MustCompile(`(?is)(<(think|thinking|reasoning)>|\[(think|thinking|reasoning)\]).*$`)

	emDash = regexp.MustCompile(`\s*\x{2014}\s*`)
)

// Sanitize strips reasoning markup from model output, replaces em dashes
// with commas and trims surrounding whitespace.
func Sanitize(text string) string {
	for _, re := range reasoningBlocks {
		text = re.ReplaceAllString(text, "")
	}
	text = orphanClose.ReplaceAllString(text, "")
	text = unterminatedBlock.ReplaceAllString(text, "")
	text = emDash.ReplaceAllString(text, ", ")
	return strings.TrimSpace(text)
}
