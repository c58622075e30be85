package reply

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/belexwatch/price-watcher/internal/service/llm"
)

type llmExtractor struct {
	primary Extractor
	llmSvc  llm.Service
	symbols []string
}

// NewLLMExtractor tries the primary extractor first and falls back to asking
// the model which watched symbol, if any, the message refers to.
func NewLLMExtractor(primary Extractor, llmSvc llm.Service, symbols []string) Extractor {
	return &llmExtractor{primary: primary, llmSvc: llmSvc, symbols: symbols}
}

func (e *llmExtractor) Extract(ctx context.Context, subject, body string) (string, bool) {
	if sym, ok := e.primary.Extract(ctx, subject, body); ok {
		return sym, true
	}

	prompt := fmt.Sprintf("Poruka od korisnika:\nSubject: %s\n%s\n\n"+
		"Korisnik pita za cenu jedne od sledecih akcija: %s. "+
		"Ako poruka pominje neku od njih, makar i opisno, odgovori u json formatu: "+
		`{"symbol": "SIMBOL ili prazan string"}`,
		subject, body, strings.Join(e.symbols, ", "))

	answer, err := e.llmSvc.AskOnce(ctx, llm.Question{Content: prompt})
	if err != nil {
		slog.Warn("llm symbol extraction failed", "err", err)
		return "", false
	}

	var res struct {
		Symbol string `json:"symbol"`
	}
	if err = extractAnswer(answer, &res); err != nil {
		slog.Warn("llm answer not parseable", "err", err)
		return "", false
	}

	sym := strings.ToUpper(strings.TrimSpace(res.Symbol))
	for _, watched := range e.symbols {
		if sym == watched {
			return sym, true
		}
	}
	return "", false
}

// extractAnswer strips the markdown code fence the model wraps json in.
func extractAnswer(answer llm.Answer, v any) error {
	content := strings.Trim(answer.Content, "\n")
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) < 3 {
			return fmt.Errorf("invalid answer format")
		}
		content = strings.Join(lines[1:len(lines)-1], "\n")
	}
	return json.Unmarshal([]byte(content), v)
}
