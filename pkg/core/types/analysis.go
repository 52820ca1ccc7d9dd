package types

// RiskLevel is the coarse classification of a corruption risk audit.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskFactor is one scored dimension of a risk analysis.
type RiskFactor struct {
	Factor string `json:"factor"`
	Score  int    `json:"score"`
}

// ReportingChannel is an agency recommended for escalation.
type ReportingChannel struct {
	Agency  string `json:"agency"`
	Link    string `json:"link"`
	Contact string `json:"contact"`
}

// RiskAnalysis is the structured output of a statutory corruption audit.
type RiskAnalysis struct {
	RiskLevel           RiskLevel          `json:"riskLevel"`
	RiskScore           int                `json:"riskScore"` // 0-100
	Summary             string             `json:"summary"`
	Steps               []string           `json:"steps"`
	LawsApplicable      []string           `json:"lawsApplicable"`
	RiskFactors         []RiskFactor       `json:"riskFactors"`
	RecommendedChannels []ReportingChannel `json:"recommendedChannels"`
}

// NewsCategory classifies a legal news item.
type NewsCategory string

const (
	NewsCorruption NewsCategory = "Corruption"
	NewsCybercrime NewsCategory = "Cybercrime"
	NewsLegal      NewsCategory = "Legal"
)

// NewsItem is one retrieved legal news headline.
type NewsItem struct {
	Title    string       `json:"title"`
	Source   string       `json:"source"`
	Date     string       `json:"date"`
	Snippet  string       `json:"snippet"`
	Link     string       `json:"link"`
	Category NewsCategory `json:"category"`
}
