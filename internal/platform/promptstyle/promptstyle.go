package promptstyle

import "strings"

const marker = "CAREERKB_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to a system prompt. Prompts that
// already carry the block are returned unchanged.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are part of a career knowledge-base interview system.")
	b.WriteString("\nFollow the instructions below precisely.")
	b.WriteString("\nUse only what the person actually said; do not invent facts.")
	if mode == "json" {
		b.WriteString("\nReturn a single JSON object that conforms to the described shape and contains no extra keys.")
	} else {
		b.WriteString("\nBe brief and conversational.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
