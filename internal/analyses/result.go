package analyses

import (
	"encoding/json"
	"fmt"
)

// Result is the structured analysis output. Field names match the JSON
// schema the model is constrained to, so the raw LLM payload unmarshals
// directly into this type.
type Result struct {
	SmartScore        int            `json:"smart_score"`
	ScoreBreakdown    ScoreBreakdown `json:"score_breakdown"`
	ExecutiveSummary  string         `json:"executive_summary"`
	DocumentSummary   string         `json:"document_summary"`
	KeyTerms          []KeyTerm      `json:"key_terms"`
	MainObligations   []string       `json:"main_obligations"`
	RedFlags          []RedFlag      `json:"red_flags"`
	Scenarios         []Scenario     `json:"scenarios"`
	MissingClauses    []string       `json:"missing_clauses"`
	PositiveNotes     []string       `json:"positive_notes"`
	FollowUpQuestions []string       `json:"follow_up_questions"`
}

type ScoreBreakdown struct {
	RedFlagScore      int `json:"red_flag_score"`
	CompletenessScore int `json:"completeness_score"`
	ClarityScore      int `json:"clarity_score"`
	FairnessScore     int `json:"fairness_score"`
}

type KeyTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Importance string `json:"importance"`
}

type RedFlag struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Severity           string   `json:"severity"`
	Summary            string   `json:"summary"`
	Explanation        string   `json:"explanation"`
	SourceText         string   `json:"source_text"`
	PageNumber         int      `json:"page_number"`
	Recommendation     string   `json:"recommendation"`
	QuestionsToAsk     []string `json:"questions_to_ask"`
	SuggestedChanges   []string `json:"suggested_changes"`
	ProfessionalAdvice string   `json:"professional_advice"`
}

type Scenario struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Likelihood  string `json:"likelihood"`
	Impact      string `json:"impact"`
}

// ParseResult decodes a raw model payload and clamps scores into range.
func ParseResult(raw json.RawMessage) (*Result, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty analysis payload")
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("analysis payload decode: %w", err)
	}
	result.SmartScore = clampScore(result.SmartScore)
	result.ScoreBreakdown.RedFlagScore = clampScore(result.ScoreBreakdown.RedFlagScore)
	result.ScoreBreakdown.CompletenessScore = clampScore(result.ScoreBreakdown.CompletenessScore)
	result.ScoreBreakdown.ClarityScore = clampScore(result.ScoreBreakdown.ClarityScore)
	result.ScoreBreakdown.FairnessScore = clampScore(result.ScoreBreakdown.FairnessScore)
	ensureSlices(&result)
	return &result, nil
}

// DegradedResult is the all-zero fallback stored when the model call
// fails, so the workflow still reaches completion.
func DegradedResult(reason string) *Result {
	result := &Result{
		SmartScore:       0,
		ExecutiveSummary: fmt.Sprintf("Analysis could not be completed. %s", reason),
	}
	ensureSlices(result)
	return result
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func ensureSlices(r *Result) {
	if r.KeyTerms == nil {
		r.KeyTerms = []KeyTerm{}
	}
	if r.MainObligations == nil {
		r.MainObligations = []string{}
	}
	if r.RedFlags == nil {
		r.RedFlags = []RedFlag{}
	}
	if r.Scenarios == nil {
		r.Scenarios = []Scenario{}
	}
	if r.MissingClauses == nil {
		r.MissingClauses = []string{}
	}
	if r.PositiveNotes == nil {
		r.PositiveNotes = []string{}
	}
	if r.FollowUpQuestions == nil {
		r.FollowUpQuestions = []string{}
	}
}
