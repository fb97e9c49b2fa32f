package openai

// Structured output schemas for the Responses API. Both are declared
// strict so the provider rejects any payload that deviates.

func domainDetectionFormat() textFormat {
	return textFormat{
		Type:   "json_schema",
		Name:   "domain_detection",
		Strict: true,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"domain": map[string]any{
					"type":        "string",
					"enum":        []string{"real_estate", "rental", "employment", "finance", "insurance", "legal_agreement", "unsupported"},
					"description": "The detected domain of the document",
				},
				"confidence": map[string]any{
					"type":        "number",
					"minimum":     0,
					"maximum":     1,
					"description": "Confidence score from 0 to 1",
				},
				"reasoning": map[string]any{
					"type":        "string",
					"description": "Brief explanation of why this domain was detected",
				},
			},
			"required":             []string{"domain", "confidence", "reasoning"},
			"additionalProperties": false,
		},
	}
}

func analysisFormat() textFormat {
	scoreProp := func(desc string) map[string]any {
		return map[string]any{
			"type":        "integer",
			"minimum":     0,
			"maximum":     100,
			"description": desc,
		}
	}
	stringArray := func(desc string) map[string]any {
		return map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": desc,
		}
	}

	return textFormat{
		Type:   "json_schema",
		Name:   "clarify_analysis",
		Strict: true,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"smart_score": scoreProp("Overall document score from 0-100"),
				"score_breakdown": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"red_flag_score":     scoreProp("Score based on severity and count of red flags (100 = no issues)"),
						"completeness_score": scoreProp("How complete the document is for its type"),
						"clarity_score":      scoreProp("How clear and readable the document is"),
						"fairness_score":     scoreProp("How balanced the terms are between parties"),
					},
					"required":             []string{"red_flag_score", "completeness_score", "clarity_score", "fairness_score"},
					"additionalProperties": false,
				},
				"executive_summary": map[string]any{
					"type":        "string",
					"description": "2-3 sentence plain language summary of the document and key findings",
				},
				"document_summary": map[string]any{
					"type":        "string",
					"description": "Detailed plain language explanation of what this document is and does",
				},
				"key_terms": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"term":       map[string]any{"type": "string", "description": "The term or concept"},
							"definition": map[string]any{"type": "string", "description": "Plain language explanation"},
							"importance": map[string]any{
								"type":        "string",
								"enum":        []string{"high", "medium", "low"},
								"description": "How important this term is to understand",
							},
						},
						"required":             []string{"term", "definition", "importance"},
						"additionalProperties": false,
					},
					"description": "Important terms and their explanations",
				},
				"main_obligations": stringArray("List of main obligations for the user based on their intent"),
				"red_flags": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":      map[string]any{"type": "string", "description": "Unique identifier like rf_1, rf_2"},
							"title":   map[string]any{"type": "string", "description": "5-8 word title summarizing the issue"},
							"severity": map[string]any{
								"type":        "string",
								"enum":        []string{"critical", "high", "medium", "low", "info"},
								"description": "Severity level of the issue",
							},
							"summary":     map[string]any{"type": "string", "description": "One sentence summary of the issue"},
							"explanation": map[string]any{"type": "string", "description": "2-3 sentence plain language explanation of what this means"},
							"source_text": map[string]any{"type": "string", "description": "The exact quote from the document that this flag refers to"},
							"page_number": map[string]any{"type": "integer", "description": "Page number where this was found (0 if unknown)"},
							"recommendation": map[string]any{
								"type":        "string",
								"description": "What the user should do about this",
							},
							"questions_to_ask":  stringArray("3 specific questions to ask the other party about this issue"),
							"suggested_changes": stringArray("3 specific modifications to request for this clause"),
							"professional_advice": map[string]any{
								"type":        "string",
								"description": "Specific advice about when and what type of professional to consult for this issue",
							},
						},
						"required": []string{
							"id", "title", "severity", "summary", "explanation", "source_text",
							"page_number", "recommendation", "questions_to_ask", "suggested_changes", "professional_advice",
						},
						"additionalProperties": false,
					},
					"description": "Issues and concerns found in the document",
				},
				"scenarios": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":          map[string]any{"type": "string", "description": "Unique identifier like sc_1, sc_2"},
							"title":       map[string]any{"type": "string", "description": "Short title for the scenario"},
							"description": map[string]any{"type": "string", "description": "What could happen in this scenario"},
							"likelihood": map[string]any{
								"type":        "string",
								"enum":        []string{"likely", "possible", "unlikely"},
								"description": "How likely this scenario is",
							},
							"impact": map[string]any{
								"type":        "string",
								"enum":        []string{"critical", "high", "medium", "low"},
								"description": "Impact severity if this occurs",
							},
						},
						"required":             []string{"id", "title", "description", "likelihood", "impact"},
						"additionalProperties": false,
					},
					"description": "Potential scenarios and their implications",
				},
				"missing_clauses":     stringArray("Standard clauses or protections that are missing from this document"),
				"positive_notes":      stringArray("Good things about this document"),
				"follow_up_questions": stringArray("Questions the user should ask a lawyer or the other party"),
			},
			"required": []string{
				"smart_score", "score_breakdown", "executive_summary", "document_summary",
				"key_terms", "main_obligations", "red_flags", "scenarios",
				"missing_clauses", "positive_notes", "follow_up_questions",
			},
			"additionalProperties": false,
		},
	}
}
