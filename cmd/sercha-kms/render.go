package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

const snippetLength = 240

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// renderResponse formats a search response for the terminal
func renderResponse(resp *domain.SearchResponse) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%d result(s) for %q", len(resp.Results), resp.Query)))
	b.WriteString("\n")
	if resp.EffectiveQuery != "" && resp.EffectiveQuery != resp.Query {
		b.WriteString(dimStyle.Render("searched as: " + resp.EffectiveQuery))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("type=%s candidates=%d took=%s",
		resp.SearchType, resp.CandidateCount, resp.Took)))
	b.WriteString("\n")
	if resp.Degraded {
		failed := make([]string, len(resp.FailedSignals))
		for i, s := range resp.FailedSignals {
			failed[i] = string(s)
		}
		b.WriteString(warnStyle.Render("degraded: " + strings.Join(failed, ", ") + " unavailable"))
		b.WriteString("\n")
	}

	for i, r := range resp.Results {
		title := fmt.Sprintf("%d. %s #%d  score=%.3f (keyword %.3f, vector %.3f)",
			i+1, r.DocumentName, r.ChunkIndex, r.Similarity, r.KeywordScore, r.VectorScore)
		b.WriteString(resultBoxStyle.Render(title + "\n" + snippet(r.Content)))
		b.WriteString("\n")
	}
	return b.String()
}

func snippet(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= snippetLength {
		return content
	}
	return string(runes[:snippetLength]) + "..."
}
