package openai

import (
	"fmt"
	"strings"

	"clarify-backend/internal/taxonomy"
)

const classificationInstructions = "You are a document classification expert. Analyze the document and determine its domain type."

const classificationQuery = `Analyze the uploaded document(s) and determine the domain.

ALLOWED DOMAINS:
- real_estate: Property purchases, deeds, titles, mortgages
- rental: Lease agreements, rental contracts, tenant/landlord documents
- employment: Job contracts, offer letters, employment agreements
- finance: Loans, credit agreements, financial contracts
- insurance: Insurance policies, coverage documents
- legal_agreement: NDAs, service contracts, general legal agreements

If the document does NOT fit any of these domains, respond with "unsupported".

Analyze the document content and provide your assessment.`

func buildAnalysisInstructions(domain, intent, language string) string {
	intentDescription := ""
	if info, ok := taxonomy.IntentFor(domain, intent); ok {
		intentDescription = fmt.Sprintf("(%s)", info.Description)
	}

	languageInstruction := ""
	if language != "" && !strings.EqualFold(language, "English") {
		languageInstruction = fmt.Sprintf(`
IMPORTANT - OUTPUT LANGUAGE:
You MUST write ALL your analysis output in %s.
This includes: executive summary, document summary, key term definitions,
red flag titles/summaries/explanations/recommendations, scenario descriptions,
and all other text content. The JSON keys remain in English, but all values
containing human-readable text must be written in %s.
`, language, language)
	}

	return fmt.Sprintf(`You are Clarify, an AI document analyst specialized in %s documents.

Your role is to help a layperson understand this document given their intent: "%s"
%s
%s
ANALYSIS REQUIREMENTS:
1. Provide a Smart Score (0-100) based on:
   - Red flag severity and count
   - Document completeness for its type
   - Clarity and readability
   - Fairness of terms

2. Identify red flags with:
   - Severity labels (critical/high/medium/low/info)
   - Exact quotes from the document
   - Plain language explanations
   - Actionable recommendations
   - 3 UNIQUE questions to ask the other party (specific to THIS red flag)
   - 3 UNIQUE suggested modifications (specific to THIS clause)
   - Professional advice tailored to THIS specific issue

3. Gap analysis:
   - Missing clauses that should be present
   - Incomplete sections
%s

4. Scenario planning:
   - What could go wrong
   - Likelihood and impact

5. Follow-up questions for a lawyer or the other party

RED FLAG SEVERITY GUIDELINES:
- CRITICAL: At least ONE red flag should be marked "critical" - identify the MOST concerning clause in the document that could cause the user significant harm. Every document has something that deserves critical attention.
- HIGH: Issues that could cause financial loss or legal problems
- MEDIUM: Unfavorable but common terms
- LOW: Minor concerns worth noting
- INFO: Informational notes

CRITICAL RULES FOR ACTION ITEMS:
- questions_to_ask: Must be 3 UNIQUE questions specific to this exact red flag. Do NOT repeat generic questions across red flags.
- suggested_changes: Must be 3 UNIQUE modification suggestions specific to this exact clause. Each red flag needs distinct suggestions.
- professional_advice: Must specify the TYPE of professional (e.g., "employment lawyer", "real estate attorney") and WHY they're needed for THIS specific issue.

CRITICAL RULES - ZERO HALLUCINATION:
- ONLY cite issues that ACTUALLY EXIST in the document
- For EVERY claim, provide the EXACT QUOTE from the document
- If something is missing, say "this document does not include X"
- If uncertain, say "this appears to..." or "it is unclear whether..."
- Do NOT manufacture red flags to seem thorough
- A clean document with few/no issues is a VALID outcome

Use 8th-grade reading level. Avoid legal jargon - explain everything simply.`,
		domain, intent, intentDescription, languageInstruction, expectedClausesBlock(domain))
}

func expectedClausesBlock(domain string) string {
	clauses := taxonomy.ExpectedClauses(domain)
	if len(clauses) == 0 {
		return ""
	}
	return fmt.Sprintf("   Clauses expected in %s documents: %s.", domain, strings.Join(clauses, ", "))
}

func buildAnalysisQuery(domain, intent, notes, language string) string {
	userNotes := notes
	if strings.TrimSpace(userNotes) == "" {
		userNotes = "Not provided"
	}

	outputLanguageNote := ""
	if language != "" && !strings.EqualFold(language, "English") {
		outputLanguageNote = fmt.Sprintf(" Provide all output in %s.", language)
	}

	return fmt.Sprintf(`Domain: %s
Intent: %s
User Context: %s

Please analyze the uploaded document(s) and provide:
1. Smart Score (0-100) with breakdown
2. Executive summary (2-3 sentences)
3. Detailed document summary
4. Key terms explained in plain language
5. Main obligations for the user
6. Red flags with severity, quotes, and recommendations
7. Scenarios and their implications
8. Missing clauses
9. Positive notes about the document
10. Follow-up questions to ask%s`, domain, intent, userNotes, outputLanguageNote)
}
