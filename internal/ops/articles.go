package ops

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/k3a/html2text"
	"go.uber.org/zap"

	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/blogger"
)

// DefaultSummaryRunes bounds the plain-text summary of an article.
const DefaultSummaryRunes = 280

// ArticlesInput contains parameters for the Articles operation.
type ArticlesInput struct {
	Limit        int // default: all
	SummaryRunes int // default: 280
}

// Article is a blog post reduced to what the article list shows.
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Published time.Time `json:"published"`
	Author    string    `json:"author"`
	Summary   string    `json:"summary"`
}

// ArticlesOutput contains the result of the Articles operation.
type ArticlesOutput struct {
	Items []Article `json:"items"`
}

// Articles fetches the article feed. A failed fetch yields an empty list.
func Articles(ctx context.Context, client blogger.Client, logger *zap.Logger, input ArticlesInput) *ArticlesOutput {
	if logger == nil {
		logger = zap.NewNop()
	}
	output := &ArticlesOutput{Items: []Article{}}
	if client == nil {
		return output
	}

	posts, err := client.Posts(ctx)
	if err != nil {
		logger.Warn("failed to fetch articles", zap.Error(err))
		return output
	}

	runes := input.SummaryRunes
	if runes <= 0 {
		runes = DefaultSummaryRunes
	}
	for _, p := range posts {
		if input.Limit > 0 && len(output.Items) >= input.Limit {
			break
		}
		output.Items = append(output.Items, Article{
			ID:        p.ID,
			Title:     strings.TrimSpace(p.Title),
			URL:       p.URL,
			Published: p.Published,
			Author:    p.Author.DisplayName,
			Summary:   summarize(html2text.HTML2Text(p.Content), runes),
		})
	}
	return output
}

// summarize collapses whitespace and truncates to n runes with an ellipsis.
func summarize(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:n])) + "…"
}
