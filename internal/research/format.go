package research

import (
	"fmt"
	"strings"

	"github.com/lydiaBn/mcp-market-research-agent/internal/search"
)

const (
	narrationPreviewRunes = 50
	analysisContentRunes  = 200
)

func titleOrUntitled(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}

// truncate 按字符（rune）截断
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// summarize 每条结果一个块，块之间空行分隔
func summarize(results []search.Result) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("**%s**\n%s\nSource: %s", titleOrUntitled(r.Title), r.Content, r.URL))
	}
	return strings.Join(blocks, "\n\n")
}

// report 按维度顺序输出分节报告
func report(sections []AspectResults) string {
	parts := make([]string, 0, len(sections))
	for _, sec := range sections {
		lines := make([]string, 0, len(sec.Results))
		for _, r := range sec.Results {
			lines = append(lines, fmt.Sprintf("- **%s**: %s...\n  Source: %s",
				titleOrUntitled(r.Title), truncate(r.Content, analysisContentRunes), r.URL))
		}
		parts = append(parts, "## "+strings.ToUpper(sec.Aspect)+"\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

func narrationMessage(text string) string {
	return fmt.Sprintf("Audio generated successfully for: '%s...'", truncate(text, narrationPreviewRunes))
}
