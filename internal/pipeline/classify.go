package pipeline

import (
	"regexp"
	"strings"
)

type ClassifyResult struct {
	IsInvoice bool
	Score     float64
}

// Lexical markers that show up in invoices. Each hit contributes a fixed
// weight so the decision is reproducible across runs on identical text.
var invoiceKeywords = []string{
	"invoice", "bill to", "billed to", "payment", "due date", "total amount",
	"invoice number", "invoice date", "payment terms", "remit to", "amount due",
}

var (
	reMoneyToken = regexp.MustCompile(`[$€£¥]\s*\d[\d,.]*`)
	reDateToken  = regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`)
)

// Classify scores normalized text against a threshold. Pure function of its
// inputs; no state, no randomness.
func Classify(text string, threshold float64) ClassifyResult {
	lower := strings.ToLower(text)

	score := 0.0
	for _, kw := range invoiceKeywords {
		if strings.Contains(lower, kw) {
			score += 0.12
		}
	}

	moneyHits := len(reMoneyToken.FindAllString(lower, 4))
	score += 0.1 * float64(moneyHits)

	if reDateToken.MatchString(lower) {
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	return ClassifyResult{IsInvoice: score >= threshold, Score: score}
}
