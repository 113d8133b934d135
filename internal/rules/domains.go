package rules

import "regintel/internal/domain"

// Domain names match the registry's domain keys and the trigger URL path.
const (
	DomainCannabisHemp = "cannabis_hemp"
	DomainKratom       = "kratom"
	DomainKava         = "kava"
	DomainCaselaw      = "caselaw"
)

// CannabisHemp covers state and federal cannabis/hemp regulators.
func CannabisHemp() RuleSet {
	return RuleSet{
		Domain:          DomainCannabisHemp,
		SourceTag:       "cannabis_hemp_poller",
		DefaultCategory: "cannabis",
		TypeRules:       commonTypeRules(),
		TopicGroups: []TopicGroup{
			{
				Category:    "cannabis",
				SubCategory: "adult_use",
				Topics:      []string{"cannabis", "marijuana", "adult-use"},
				Keywords:    []string{"cannabis", "marijuana", "marihuana", "thc", "adult-use", "adult use", "dispensary"},
			},
			{
				Category:    "hemp",
				SubCategory: "cannabinoids",
				Topics:      []string{"hemp", "cbd", "cannabinoids"},
				Keywords:    []string{"hemp", "cbd", "cannabidiol", "cannabinoid", "delta-8", "delta-9", "thca"},
			},
			{
				Category:    "cannabis",
				SubCategory: "medical",
				Topics:      []string{"medical cannabis"},
				Keywords:    []string{"medical marijuana", "medical cannabis", "patient registry", "caregiver"},
			},
		},
		PromptFocus: "cannabis, hemp, and cannabinoid (THC, CBD, delta-8) regulation",
	}
}

// Kratom covers kratom and mitragynine regulation.
func Kratom() RuleSet {
	return RuleSet{
		Domain:          DomainKratom,
		SourceTag:       "kratom_poller",
		DefaultCategory: "kratom",
		TypeRules:       commonTypeRules(),
		TopicGroups: []TopicGroup{
			{
				Category:    "kratom",
				SubCategory: "consumer_protection",
				Topics:      []string{"kratom", "mitragynine"},
				Keywords:    []string{"kratom", "mitragyna", "mitragynine", "7-hydroxymitragynine", "7-oh"},
			},
		},
		PromptFocus: "kratom and mitragynine regulation and consumer-protection actions",
	}
}

// Kava covers kava and kavalactone regulation.
func Kava() RuleSet {
	return RuleSet{
		Domain:          DomainKava,
		SourceTag:       "kava_poller",
		DefaultCategory: "kava",
		TypeRules:       commonTypeRules(),
		TopicGroups: []TopicGroup{
			{
				Category:    "kava",
				SubCategory: "food_safety",
				Topics:      []string{"kava", "kavalactones"},
				Keywords:    []string{"kava", "piper methysticum", "kavalactone", "kava bar"},
			},
		},
		PromptFocus: "kava and kavalactone regulation, food-safety and labeling actions",
	}
}

// Caselaw covers court decisions touching the regulated substances.
func Caselaw() RuleSet {
	return RuleSet{
		Domain:          DomainCaselaw,
		SourceTag:       "caselaw_poller",
		DefaultCategory: "caselaw",
		TypeRules: append([]TypeRule{
			{Type: domain.DocEnforcementAction, Any: []string{"injunction", "restraining order", "consent decree"}},
		}, commonTypeRules()...),
		TopicGroups: []TopicGroup{
			{
				Category:    "caselaw",
				SubCategory: "litigation",
				Topics:      []string{"litigation", "court ruling"},
				Keywords:    []string{"court", "ruling", "opinion", "appeal", "lawsuit", "litigation", "plaintiff", "defendant"},
			},
		},
		PromptFocus: "court decisions and litigation affecting cannabis, hemp, kratom, and kava businesses",
	}
}

// All returns the four poller rule sets in stable order.
func All() []RuleSet {
	return []RuleSet{CannabisHemp(), Kratom(), Kava(), Caselaw()}
}

// ForDomain resolves a rule set by domain name.
func ForDomain(name string) (RuleSet, bool) {
	for _, rs := range All() {
		if rs.Domain == name {
			return rs, true
		}
	}
	return RuleSet{}, false
}
