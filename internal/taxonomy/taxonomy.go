// Package taxonomy defines the supported document domains and the
// reader intents a user can select for each of them.
package taxonomy

// Domain identifiers. DomainUnsupported is the fallback when a document
// does not match any supported category.
const (
	DomainRealEstate     = "real_estate"
	DomainRental         = "rental"
	DomainEmployment     = "employment"
	DomainFinance        = "finance"
	DomainInsurance      = "insurance"
	DomainLegalAgreement = "legal_agreement"
	DomainUnsupported    = "unsupported"
)

// IntentOther is the escape hatch intent available in every domain. It
// requires the user to describe their situation in free text.
const IntentOther = "other"

// Intent is one selectable reader role within a domain.
type Intent struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// DomainInfo describes one supported domain and its intent options.
type DomainInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Keywords    []string `json:"-"`
	Intents     []Intent `json:"intents"`
}

var reviewingIntent = Intent{
	ID:          "reviewing",
	Label:       "I am reviewing for someone else",
	Description: "You are helping someone understand this document",
}

var otherIntent = Intent{
	ID:          IntentOther,
	Label:       "Other",
	Description: "My situation is different",
}

var domains = map[string]DomainInfo{
	DomainRealEstate: {
		ID:          DomainRealEstate,
		Description: "Real Estate Documents",
		Keywords:    []string{"property", "deed", "title", "mortgage", "real estate", "land", "purchase"},
		Intents: []Intent{
			{ID: "buyer", Label: "I am buying this property", Description: "You want to purchase and will be the new owner"},
			{ID: "seller", Label: "I am selling this property", Description: "You own the property and are transferring ownership"},
			reviewingIntent,
			otherIntent,
		},
	},
	DomainRental: {
		ID:          DomainRental,
		Description: "Rental & Lease Agreements",
		Keywords:    []string{"lease", "tenant", "landlord", "rent", "premises", "occupancy", "rental"},
		Intents: []Intent{
			{ID: "tenant", Label: "I am the tenant signing this lease", Description: "You will be renting and living in the property"},
			{ID: "landlord", Label: "I am the landlord/property owner", Description: "You own the property and are leasing it out"},
			reviewingIntent,
			otherIntent,
		},
	},
	DomainEmployment: {
		ID:          DomainEmployment,
		Description: "Employment Contracts",
		Keywords:    []string{"employee", "employer", "salary", "compensation", "termination", "employment", "job", "hire"},
		Intents: []Intent{
			{ID: "employee", Label: "I am the employee signing this contract", Description: "You are being hired and will work for this company"},
			{ID: "employer", Label: "I am the employer/company", Description: "You are hiring and this is your contract"},
			reviewingIntent,
			otherIntent,
		},
	},
	DomainFinance: {
		ID:          DomainFinance,
		Description: "Financial Documents",
		Keywords:    []string{"loan", "credit", "interest", "principal", "payment", "financial", "mortgage", "debt"},
		Intents: []Intent{
			{ID: "borrower", Label: "I am the borrower", Description: "You are taking the loan or credit"},
			{ID: "lender", Label: "I am the lender/institution", Description: "You are providing the loan or credit"},
			reviewingIntent,
			otherIntent,
		},
	},
	DomainInsurance: {
		ID:          DomainInsurance,
		Description: "Insurance Policies",
		Keywords:    []string{"policy", "premium", "coverage", "claim", "insured", "insurance", "deductible"},
		Intents: []Intent{
			{ID: "policyholder", Label: "I am buying/reviewing this policy", Description: "You are the one being insured"},
			{ID: "beneficiary", Label: "I am a beneficiary", Description: "You are named as a beneficiary on this policy"},
			reviewingIntent,
			otherIntent,
		},
	},
	DomainLegalAgreement: {
		ID:          DomainLegalAgreement,
		Description: "Legal Agreements (NDA, Service Contracts, etc.)",
		Keywords:    []string{"agreement", "contract", "party", "terms", "conditions", "obligations", "nda", "confidential"},
		Intents: []Intent{
			{ID: "party_a", Label: "I am signing/agreeing to this", Description: "You are one of the parties entering this agreement"},
			{ID: "party_receiving", Label: "I am the party receiving services", Description: "You are receiving services or goods under this agreement"},
			reviewingIntent,
			otherIntent,
		},
	},
}

// expectedClauses lists the clauses a complete document of each domain
// should contain. Used by the analysis prompt for completeness scoring.
var expectedClauses = map[string][]string{
	DomainRental:         {"rent amount", "security deposit", "lease term", "maintenance", "termination", "late fees"},
	DomainEmployment:     {"compensation", "benefits", "termination", "confidentiality", "duties", "start date"},
	DomainRealEstate:     {"purchase price", "closing date", "title", "contingencies", "warranties"},
	DomainFinance:        {"principal", "interest", "payment schedule", "default", "prepayment"},
	DomainInsurance:      {"coverage", "premium", "deductible", "exclusions", "claim"},
	DomainLegalAgreement: {"parties", "obligations", "term", "termination", "governing law"},
}

// AllowedDomains returns the supported domain identifiers in a stable order.
func AllowedDomains() []string {
	return []string{
		DomainRealEstate,
		DomainEmployment,
		DomainFinance,
		DomainRental,
		DomainInsurance,
		DomainLegalAgreement,
	}
}

// IsSupported reports whether the domain is one of the supported categories.
// DomainUnsupported is not considered supported.
func IsSupported(domain string) bool {
	_, ok := domains[domain]
	return ok
}

// Lookup returns the domain info for a supported domain.
func Lookup(domain string) (DomainInfo, bool) {
	info, ok := domains[domain]
	return info, ok
}

// IntentsFor returns the intent options for a domain. Unsupported or
// unknown domains have no intent options.
func IntentsFor(domain string) []Intent {
	info, ok := domains[domain]
	if !ok {
		return nil
	}
	out := make([]Intent, len(info.Intents))
	copy(out, info.Intents)
	return out
}

// IntentFor returns a single intent option within a domain.
func IntentFor(domain, intentID string) (Intent, bool) {
	info, ok := domains[domain]
	if !ok {
		return Intent{}, false
	}
	for _, intent := range info.Intents {
		if intent.ID == intentID {
			return intent, true
		}
	}
	return Intent{}, false
}

// ValidIntent reports whether intentID is a selectable intent for the domain.
func ValidIntent(domain, intentID string) bool {
	_, ok := IntentFor(domain, intentID)
	return ok
}

// ExpectedClauses returns the clauses a complete document of the domain
// should contain.
func ExpectedClauses(domain string) []string {
	clauses, ok := expectedClauses[domain]
	if !ok {
		return nil
	}
	out := make([]string, len(clauses))
	copy(out, clauses)
	return out
}

// Normalize maps a raw classifier domain string onto the supported set,
// folding anything unknown to DomainUnsupported.
func Normalize(domain string) string {
	if IsSupported(domain) {
		return domain
	}
	return DomainUnsupported
}
