package reply

import (
	"context"
	"fmt"
	"regexp"

	"github.com/samber/lo"
)

// Extractor finds a watched symbol mentioned in an incoming message.
type Extractor interface {
	Extract(ctx context.Context, subject, body string) (string, bool)
}

type regexExtractor struct {
	symbols  []string
	patterns []*regexp.Regexp
}

// NewRegexExtractor matches whole-word symbol mentions, case-insensitively,
// in configured symbol order. The subject is checked before the body.
func NewRegexExtractor(symbols []string) Extractor {
	return &regexExtractor{
		symbols: symbols,
		patterns: lo.Map(symbols, func(sym string, _ int) *regexp.Regexp {
			return regexp.MustCompile(fmt.Sprintf(`(?i)\b%s\b`, regexp.QuoteMeta(sym)))
		}),
	}
}

func (e *regexExtractor) Extract(_ context.Context, subject, body string) (string, bool) {
	for _, text := range []string{subject, body} {
		for i, pattern := range e.patterns {
			if pattern.MatchString(text) {
				return e.symbols[i], true
			}
		}
	}
	return "", false
}
