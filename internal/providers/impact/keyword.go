package impact

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

var impactKeywords = []string{
	"education", "health", "sanitation", "clean water", "water", "solar", "renewable",
	"community", "poverty", "microfinance", "sustainab", "recycle", "recycling", "food", "hunger",
	"agriculture", "mental health", "women", "child", "disability", "access", "inclusion",
}

// KeywordFallback reports whether any social-impact keyword appears in the
// combined project text.
func KeywordFallback(title, area, description string) bool {
	text := cases.Fold().String(title + " " + area + " " + description)
	for _, kw := range impactKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// KeywordClassifier is the offline strategy.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, in Input) Verdict {
	v := Verdict{Result: TriOf(KeywordFallback(in.Title, in.Area, in.Description)), Provider: ProviderKeyword}
	if v.Result == True {
		v.Reason = "matched social impact keyword"
	} else {
		v.Reason = "no social impact keyword found"
	}
	return v
}
