package domain

// DocumentType enumerates the kinds of regulatory documents the pipeline
// recognizes. Classifier output outside this set is normalized to a default.
type DocumentType string

const (
	DocRegulation        DocumentType = "regulation"
	DocProposedRule      DocumentType = "proposed_rule"
	DocFinalRule         DocumentType = "final_rule"
	DocGuidance          DocumentType = "guidance"
	DocBulletin          DocumentType = "bulletin"
	DocMemo              DocumentType = "memo"
	DocPressRelease      DocumentType = "press_release"
	DocAnnouncement      DocumentType = "announcement"
	DocEnforcementAction DocumentType = "enforcement_action"
	DocLicenseUpdate     DocumentType = "license_update"
	DocPolicyChange      DocumentType = "policy_change"
	DocPublicNotice      DocumentType = "public_notice"
	DocEmergencyRule     DocumentType = "emergency_rule"
	DocAdvisory          DocumentType = "advisory"
)

// Urgency ranks how time-sensitive a document is.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var documentTypes = map[DocumentType]struct{}{
	DocRegulation: {}, DocProposedRule: {}, DocFinalRule: {}, DocGuidance: {},
	DocBulletin: {}, DocMemo: {}, DocPressRelease: {}, DocAnnouncement: {},
	DocEnforcementAction: {}, DocLicenseUpdate: {}, DocPolicyChange: {},
	DocPublicNotice: {}, DocEmergencyRule: {}, DocAdvisory: {},
}

var urgencies = map[Urgency]struct{}{
	UrgencyLow: {}, UrgencyMedium: {}, UrgencyHigh: {}, UrgencyCritical: {},
}

// NormalizeDocumentType maps arbitrary classifier output onto the enum,
// substituting the default for anything unrecognized.
func NormalizeDocumentType(v string) DocumentType {
	if _, ok := documentTypes[DocumentType(v)]; ok {
		return DocumentType(v)
	}
	return DocAnnouncement
}

// NormalizeUrgency maps arbitrary classifier output onto the urgency enum.
func NormalizeUrgency(v string) Urgency {
	if _, ok := urgencies[Urgency(v)]; ok {
		return Urgency(v)
	}
	return UrgencyMedium
}

// ClampScore bounds a relevance score to [0, 1].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Classification is the categorization attached to a record before write.
type Classification struct {
	DocumentType       DocumentType `json:"documentType"`
	Category           string       `json:"category"`
	SubCategory        string       `json:"subCategory"`
	Summary            string       `json:"summary"`
	RelevanceScore     float64      `json:"relevanceScore"`
	Topics             []string     `json:"topics"`
	Urgency            Urgency      `json:"urgency"`
	DispensaryRelevant bool         `json:"dispensaryRelevant"`
	LicensingRelevant  bool         `json:"licensingRelevant"`
	ComplianceRelevant bool         `json:"complianceRelevant"`
}

// Normalize replaces out-of-enum fields with safe defaults and clamps the
// relevance score. Always returns a valid Classification.
func (c Classification) Normalize() Classification {
	c.DocumentType = NormalizeDocumentType(string(c.DocumentType))
	c.Urgency = NormalizeUrgency(string(c.Urgency))
	c.RelevanceScore = ClampScore(c.RelevanceScore)
	if c.Topics == nil {
		c.Topics = []string{}
	}
	return c
}
