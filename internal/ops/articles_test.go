package ops

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/blogger"
)

type fakeBlog struct {
	posts []blogger.Post
	err   error
}

func (f *fakeBlog) Posts(context.Context) ([]blogger.Post, error) { return f.posts, f.err }

func TestArticles(t *testing.T) {
	blog := &fakeBlog{posts: []blogger.Post{
		{
			ID:        "p1",
			Title:     "  Menanam selada  ",
			URL:       "https://blog.test/p1",
			Published: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC),
			Content:   "<p>Selada tumbuh <b>cepat</b>.</p>",
			Author:    blogger.Author{DisplayName: "Tim LetVision"},
		},
		{ID: "p2", Title: "Hidroponik", Content: "<p>" + strings.Repeat("kata ", 100) + "</p>"},
	}}

	out := Articles(context.Background(), blog, nil, ArticlesInput{SummaryRunes: 20})
	if len(out.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(out.Items))
	}
	a := out.Items[0]
	if a.Title != "Menanam selada" || a.Author != "Tim LetVision" || a.Summary != "Selada tumbuh cepat." {
		t.Errorf("Items[0] = %+v", a)
	}
	if s := out.Items[1].Summary; !strings.HasSuffix(s, "…") || len([]rune(s)) > 21 {
		t.Errorf("Items[1].Summary = %q, want truncated", s)
	}

	out = Articles(context.Background(), blog, nil, ArticlesInput{Limit: 1})
	if len(out.Items) != 1 {
		t.Errorf("Limit: len(Items) = %d, want 1", len(out.Items))
	}
}

func TestArticles_FailureIsEmpty(t *testing.T) {
	out := Articles(context.Background(), &fakeBlog{err: stderrors.New("403")}, nil, ArticlesInput{})
	if out.Items == nil || len(out.Items) != 0 {
		t.Errorf("Items = %v, want empty slice", out.Items)
	}
	if out := Articles(context.Background(), nil, nil, ArticlesInput{}); len(out.Items) != 0 {
		t.Errorf("nil client Items = %v", out.Items)
	}
}
