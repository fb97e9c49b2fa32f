package analyses

import (
	"strings"
	"testing"
)

func TestParseResultClampsScores(t *testing.T) {
	raw := []byte(`{
		"smart_score": 140,
		"score_breakdown": {
			"red_flag_score": -5,
			"completeness_score": 101,
			"clarity_score": 88,
			"fairness_score": 70
		},
		"executive_summary": "Mostly fair lease.",
		"document_summary": "A 12 month residential lease.",
		"key_terms": [{"term": "Security Deposit", "definition": "Money held by the landlord", "importance": "high"}],
		"main_obligations": ["Pay rent by the 1st"],
		"red_flags": [],
		"scenarios": [],
		"missing_clauses": [],
		"positive_notes": [],
		"follow_up_questions": []
	}`)

	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if result.SmartScore != 100 {
		t.Fatalf("smart score = %d, want clamped 100", result.SmartScore)
	}
	if result.ScoreBreakdown.RedFlagScore != 0 {
		t.Fatalf("red flag score = %d, want clamped 0", result.ScoreBreakdown.RedFlagScore)
	}
	if result.ScoreBreakdown.CompletenessScore != 100 {
		t.Fatalf("completeness score = %d, want clamped 100", result.ScoreBreakdown.CompletenessScore)
	}
	if result.ScoreBreakdown.ClarityScore != 88 {
		t.Fatalf("clarity score = %d, want 88", result.ScoreBreakdown.ClarityScore)
	}
	if len(result.KeyTerms) != 1 || result.KeyTerms[0].Term != "Security Deposit" {
		t.Fatalf("key terms = %+v", result.KeyTerms)
	}
}

func TestParseResultDefaultsMissingLists(t *testing.T) {
	result, err := ParseResult([]byte(`{"smart_score": 50, "executive_summary": "ok"}`))
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if result.RedFlags == nil || result.Scenarios == nil || result.FollowUpQuestions == nil {
		t.Fatal("list fields should never be nil")
	}
}

func TestParseResultRejectsBadPayload(t *testing.T) {
	if _, err := ParseResult(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := ParseResult([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestDegradedResult(t *testing.T) {
	result := DegradedResult("openai request timeout")
	if result.SmartScore != 0 {
		t.Fatalf("smart score = %d, want 0", result.SmartScore)
	}
	if !strings.HasPrefix(result.ExecutiveSummary, "Analysis could not be completed.") {
		t.Fatalf("executive summary = %q", result.ExecutiveSummary)
	}
	if !strings.Contains(result.ExecutiveSummary, "openai request timeout") {
		t.Fatalf("executive summary should carry the reason: %q", result.ExecutiveSummary)
	}
	if result.RedFlags == nil || result.MissingClauses == nil {
		t.Fatal("degraded result should keep empty lists, not nil")
	}
}
