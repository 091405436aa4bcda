package repository

import (
	"sort"
	"strings"

	"github.com/minutier/minutier/internal/repository"
)

// highlightSpans computes the byte ranges of the query terms inside text,
// case-insensitive, sorted by start with overlapping ranges merged. The
// database ranks the rows; offsets are derived here because ts_headline
// returns markup rather than positions.
func highlightSpans(text, query string) []repository.HighlightSpan {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	lowered := strings.ToLower(text)
	var spans []repository.HighlightSpan
	for _, term := range terms {
		for from := 0; ; {
			idx := strings.Index(lowered[from:], term)
			if idx < 0 {
				break
			}
			start := from + idx
			spans = append(spans, repository.HighlightSpan{Start: start, End: start + len(term)})
			from = start + len(term)
		}
	}
	return mergeSpans(spans)
}

// queryTerms splits a websearch-style query into lowercase match terms,
// dropping operators and quotes.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return r == ' ' || r == '"' || r == '\t' || r == '\n'
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		switch f {
		case "or", "and", "-":
			continue
		}
		f = strings.TrimPrefix(f, "-")
		if f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}

func mergeSpans(spans []repository.HighlightSpan) []repository.HighlightSpan {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
