package classifier

import (
	"context"
	"strings"

	"regintel/internal/domain"
	"regintel/internal/ports"
	"regintel/internal/rules"
)

// Heuristic is the deterministic keyword classifier. It is the safety net
// for model outages: it always returns a valid Classification and never
// fails, whatever the input.
type Heuristic struct {
	rules rules.RuleSet
}

var _ ports.Classifier = (*Heuristic)(nil)

// NewHeuristic binds a domain rule set.
func NewHeuristic(rs rules.RuleSet) *Heuristic {
	return &Heuristic{rules: rs}
}

// Classify scores title+description against the domain's keyword groups.
func (h *Heuristic) Classify(_ context.Context, in ports.ClassifyInput) domain.Classification {
	text := strings.ToLower(in.Title + " " + in.Description)

	docType, typeMatched := matchType(h.rules.TypeRules, text)
	category, subCategory, topics, topicMatched := matchTopics(h.rules, text)
	urgency := matchUrgency(text)

	score := 0.2
	if topicMatched {
		score += 0.4
	}
	if typeMatched {
		score += 0.25
	}
	switch urgency {
	case domain.UrgencyCritical:
		score += 0.15
	case domain.UrgencyHigh:
		score += 0.1
	}

	summary := in.Description
	if summary == "" {
		summary = in.Title
	}
	if len(summary) > 280 {
		summary = summary[:280]
	}

	return domain.Classification{
		DocumentType:       docType,
		Category:           category,
		SubCategory:        subCategory,
		Summary:            summary,
		RelevanceScore:     domain.ClampScore(score),
		Topics:             topics,
		Urgency:            urgency,
		DispensaryRelevant: containsAny(text, rules.DispensaryWords),
		LicensingRelevant:  containsAny(text, rules.LicensingWords),
		ComplianceRelevant: containsAny(text, rules.ComplianceWords),
	}.Normalize()
}

func matchType(typeRules []rules.TypeRule, text string) (domain.DocumentType, bool) {
	for _, rule := range typeRules {
		if len(rule.All) > 0 {
			if containsAll(text, rule.All) {
				return rule.Type, true
			}
			continue
		}
		if containsAny(text, rule.Any) {
			return rule.Type, true
		}
	}
	return domain.DocAnnouncement, false
}

func matchTopics(rs rules.RuleSet, text string) (string, string, []string, bool) {
	var (
		category    string
		subCategory string
		topics      []string
	)

	for _, group := range rs.TopicGroups {
		if !containsAny(text, group.Keywords) {
			continue
		}
		if category == "" {
			category = group.Category
			subCategory = group.SubCategory
		}
		topics = append(topics, group.Topics...)
	}

	if category == "" {
		return rs.DefaultCategory, "", []string{}, false
	}
	return category, subCategory, topics, true
}

func matchUrgency(text string) domain.Urgency {
	switch {
	case containsAny(text, rules.CriticalWords):
		return domain.UrgencyCritical
	case containsAny(text, rules.HighWords):
		return domain.UrgencyHigh
	case containsAny(text, rules.LowWords):
		return domain.UrgencyLow
	default:
		return domain.UrgencyMedium
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func containsAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return len(words) > 0
}
