package outfit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/dedent"
	"github.com/raine/virtual-closet/internal/wardrobe"
)

// DefaultPromptMaxChars bounds the wardrobe listing part of a prompt.
const DefaultPromptMaxChars = 6000

const truncatedMarker = "...(truncated)"

const promptHeader = `You are a professional fashion stylist. %s. Create an outfit from the following wardrobe items that meets this request. Select the best matching items that coordinate well together.`

const promptInstruction = `
	Select appropriate items to create a cohesive outfit that matches the request. You can select 0 or 1 item from each category, never more than one. Use "null" for a category you leave empty. Respond with a single JSON object in exactly this format:
	{
	  "outfit": {
	%s
	  },
	  "reasoning": "Brief explanation of why these items work well together and how they fulfill the request"
	}`

func formatPrompt(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

// BuildPrompt renders the stylist prompt for a (bounded) partition. Only
// the wardrobe listing is cut down to maxChars; the reply-format
// instruction is always appended whole.
func BuildPrompt(p wardrobe.Partition, intent string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultPromptMaxChars
	}

	intent = strings.TrimRight(strings.TrimSpace(intent), ".!")
	if intent == "" {
		intent = defaultIntent
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(promptHeader, intent))
	b.WriteString("\n\n")

	categories := p.Categories()
	for _, c := range categories {
		b.WriteString(fmt.Sprintf("%s (select 0-1):\n", strings.ToUpper(string(c))))
		for i, item := range p.Items(c) {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, describeItem(item)))
		}
		b.WriteString("\n")
	}

	var slots []string
	for _, c := range categories {
		slots = append(slots, fmt.Sprintf(`    "%s": "ID_OF_SELECTED_ITEM_OR_NULL"`, c))
	}

	return truncateContext(b.String(), maxChars) + formatPrompt(promptInstruction, strings.Join(slots, ",\n"))
}

// describeItem is the reduced projection sent for each item: title,
// brand, a colour guessed from the title and the identifier.
func describeItem(item wardrobe.Item) string {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = "Unnamed item"
	}
	line := title
	if brand := strings.TrimSpace(item.Brand); brand != "" {
		line += fmt.Sprintf(" (%s)", brand)
	}
	if color := wardrobe.ColorFromTitle(item.Title); color != "" {
		line += " - color: " + color
	}
	return line + " - ID: " + item.ID
}

// truncateContext cuts text to at most maxChars bytes, preferring a line
// boundary, and marks the cut.
func truncateContext(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if idx := strings.LastIndex(cut, "\n"); idx > 0 {
		cut = cut[:idx+1]
	} else {
		for len(cut) > 0 && !utf8.RuneStart(text[len(cut)]) {
			cut = cut[:len(cut)-1]
		}
		cut += "\n"
	}
	return cut + truncatedMarker + "\n\n"
}
