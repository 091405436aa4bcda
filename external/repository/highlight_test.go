package repository

import (
	"testing"

	"github.com/minutier/minutier/internal/repository"
)

func TestHighlightSpans_SingleTerm(t *testing.T) {
	spans := highlightSpans("the budget meeting covered the budget twice", "budget")
	want := []repository.HighlightSpan{{Start: 4, End: 10}, {Start: 31, End: 37}}
	if len(spans) != len(want) {
		t.Fatalf("unexpected span count: %d", len(spans))
	}
	for i, s := range spans {
		if s != want[i] {
			t.Fatalf("span %d: got %+v want %+v", i, s, want[i])
		}
	}
}

func TestHighlightSpans_CaseInsensitive(t *testing.T) {
	spans := highlightSpans("Budget review", "BUDGET")
	if len(spans) != 1 || spans[0].Start != 0 || spans[0].End != 6 {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}

func TestHighlightSpans_MultipleTermsSorted(t *testing.T) {
	spans := highlightSpans("deadline set before budget talk", "budget deadline")
	if len(spans) != 2 {
		t.Fatalf("unexpected span count: %d", len(spans))
	}
	if spans[0].Start >= spans[1].Start {
		t.Fatalf("spans must be sorted by start: %+v", spans)
	}
	if got := "deadline set before budget talk"[spans[0].Start:spans[0].End]; got != "deadline" {
		t.Fatalf("unexpected first match: %q", got)
	}
}

func TestHighlightSpans_OverlapMerged(t *testing.T) {
	// "budget" and "budgets" overlap on every occurrence of "budgets".
	spans := highlightSpans("budgets", "budget budgets")
	if len(spans) != 1 {
		t.Fatalf("overlapping spans must merge, got %+v", spans)
	}
	if spans[0].Start != 0 || spans[0].End != 7 {
		t.Fatalf("unexpected merged span: %+v", spans[0])
	}
}

func TestHighlightSpans_NoMatch(t *testing.T) {
	if spans := highlightSpans("nothing relevant here", "zebra"); spans != nil {
		t.Fatalf("expected nil, got %+v", spans)
	}
}

func TestHighlightSpans_OperatorsIgnored(t *testing.T) {
	spans := highlightSpans("alpha or beta", `alpha OR "beta"`)
	if len(spans) != 2 {
		t.Fatalf("unexpected span count: %+v", spans)
	}
	text := "alpha or beta"
	if text[spans[0].Start:spans[0].End] != "alpha" || text[spans[1].Start:spans[1].End] != "beta" {
		t.Fatalf("unexpected matches: %+v", spans)
	}
}

func TestHighlightSpans_EmptyQuery(t *testing.T) {
	if spans := highlightSpans("text", "   "); spans != nil {
		t.Fatalf("expected nil, got %+v", spans)
	}
}
