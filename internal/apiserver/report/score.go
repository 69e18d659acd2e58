package report

import (
	"github.com/amoylab/ragtrack/internal/apiserver/database"
)

// ScoreInput is the subset of a submission the scoring heuristic looks at.
type ScoreInput struct {
	BillingCount         int                    `json:"billingCount"`
	CurrentBillableCount int                    `json:"currentBillableCount"`
	Attrition            []database.Attrition   `json:"attrition"`
	Escalations          []database.Escalation  `json:"escalations"`
	Deliverables         []database.Deliverable `json:"deliverables"`
}

// Suggestion is an advisory score. The PM's manual RAG choice remains
// authoritative; this is only a hint surfaced next to the selector.
type Suggestion struct {
	Score float64            `json:"score"`
	Rag   database.RagStatus `json:"rag"`
}

// SuggestRag computes the weighted health score: equal-weight average of
// team composition, attrition, escalation severity and deliverable delays,
// mapped onto Green (>=80), Amber (>=60) and Red.
func SuggestRag(in ScoreInput) Suggestion {
	teamScore := 50.0
	if in.BillingCount > 0 && in.BillingCount == in.CurrentBillableCount {
		teamScore = 100
	}

	attScore := 100.0
	if len(in.Attrition) > 0 {
		attScore = 50
	}

	escScore := 100.0
	if len(in.Escalations) > 0 {
		escScore = 80
		for _, e := range in.Escalations {
			if e.Severity == database.SeverityCritical || e.Severity == database.SeverityMajor {
				escScore = 50
				break
			}
		}
	}

	delScore := 100.0
	for _, d := range in.Deliverables {
		if d.Status == database.DeliverableDelayed {
			delScore = 50
			break
		}
	}

	score := (teamScore + attScore + escScore + delScore) / 4

	rag := database.RagRed
	switch {
	case score >= 80:
		rag = database.RagGreen
	case score >= 60:
		rag = database.RagAmber
	}

	return Suggestion{Score: score, Rag: rag}
}
