package rules

import "regintel/internal/domain"

// TypeRule maps keyword matches to a document type. When All is set, every
// word must appear; otherwise any word from Any suffices. Rules are checked
// in order and the first match wins.
type TypeRule struct {
	Type domain.DocumentType
	All  []string
	Any  []string
}

// TopicGroup binds a substance-family keyword group to category metadata.
type TopicGroup struct {
	Category    string
	SubCategory string
	Topics      []string
	Keywords    []string
}

// RuleSet parameterizes one poller domain: its provenance tag, keyword
// heuristics, and the focus line of the model prompt.
type RuleSet struct {
	Domain          string
	SourceTag       string
	DefaultCategory string
	TypeRules       []TypeRule
	TopicGroups     []TopicGroup
	PromptFocus     string
}

// Urgency keyword groups are shared across domains.
var (
	CriticalWords = []string{"emergency", "immediate", "recall", "ban effective"}
	HighWords     = []string{"deadline", "required", "mandatory", "must comply", "compliance date", "enforcement"}
	LowWords      = []string{"update", "reminder", "newsletter"}
)

// Relevance boolean-flag keyword groups, shared across domains.
var (
	DispensaryWords = []string{"dispensary", "dispensaries", "retailer", "retail store", "point of sale"}
	LicensingWords  = []string{"license", "licensing", "licensee", "permit", "application window"}
	ComplianceWords = []string{"compliance", "testing", "labeling", "packaging", "audit", "inspection"}
)

// commonTypeRules are the regulatory phrase groups every domain shares.
// Emergency outranks the generic rule patterns so "adopts emergency rule"
// classifies as emergency_rule, not regulation.
func commonTypeRules() []TypeRule {
	return []TypeRule{
		{Type: domain.DocEmergencyRule, Any: []string{"emergency"}},
		{Type: domain.DocProposedRule, All: []string{"proposed", "rule"}},
		{Type: domain.DocProposedRule, Any: []string{"notice of proposed rulemaking", "nprm"}},
		{Type: domain.DocFinalRule, All: []string{"final", "rule"}},
		{Type: domain.DocEnforcementAction, Any: []string{"enforcement", "violation", "cease and desist", "fine", "penalty"}},
		{Type: domain.DocLicenseUpdate, Any: []string{"license", "licensing", "permit"}},
		{Type: domain.DocGuidance, Any: []string{"guidance", "guideline", "faq"}},
		{Type: domain.DocBulletin, Any: []string{"bulletin"}},
		{Type: domain.DocMemo, Any: []string{"memo", "memorandum"}},
		{Type: domain.DocPressRelease, Any: []string{"press release"}},
		{Type: domain.DocAdvisory, Any: []string{"advisory", "warning letter", "consumer alert"}},
		{Type: domain.DocPublicNotice, Any: []string{"public notice", "public comment", "hearing"}},
		{Type: domain.DocPolicyChange, Any: []string{"policy"}},
		{Type: domain.DocRegulation, Any: []string{"regulation", "rulemaking", "rule", "statute", "ordinance"}},
	}
}
