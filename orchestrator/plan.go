package orchestrator

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Rule maps request-text keywords to a pipeline capability. Rules are
// data, not code: the default table below can be replaced wholesale from
// a TOML file so routing policy is testable and extensible without
// touching dispatch logic.
type Rule struct {
	// Capability to add to the pipeline when the rule matches.
	Capability string `toml:"capability"`

	// Keywords trigger the rule when any of them occurs in the lowercased
	// request text. An empty list matches every request.
	Keywords []string `toml:"keywords"`

	// Requires lists capabilities that must already be planned by earlier
	// rules; the rule is skipped otherwise. Used for stages whose output
	// only makes sense on top of another stage's.
	Requires []string `toml:"requires"`
}

// DefaultRules returns the built-in routing table: research always runs
// first; analysis joins on analysis-indicating keywords; visualization
// joins on visualization keywords but only when analysis also runs.
// Matching is case-insensitive substring matching — "analyz" covers both
// "analyze" and "analyzing".
func DefaultRules() []Rule {
	return []Rule{
		{Capability: "research"},
		{Capability: "analysis", Keywords: []string{"analyz", "analysis", "insight"}},
		{Capability: "visualization", Keywords: []string{"visualiz", "chart", "graph", "plot"}, Requires: []string{"analysis"}},
	}
}

// ruleFile is the TOML shape: repeated [[rule]] tables.
type ruleFile struct {
	Rule []Rule `toml:"rule"`
}

// LoadRules reads a routing table from a TOML file:
//
//	[[rule]]
//	capability = "research"
//
//	[[rule]]
//	capability = "analysis"
//	keywords = ["analyz", "insight"]
func LoadRules(path string) ([]Rule, error) {
	var f ruleFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("loading routing rules: %w", err)
	}
	if err := validateRules(f.Rule); err != nil {
		return nil, err
	}
	return f.Rule, nil
}

// validateRules rejects tables that could never dispatch.
func validateRules(rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("routing rule table is empty")
	}
	for i, r := range rules {
		if r.Capability == "" {
			return fmt.Errorf("rule %d has no capability", i)
		}
	}
	return nil
}

// PlanStages derives the ordered capability pipeline for a request. Rules
// are checked in table order against the lowercased text, so the table
// order is the stage order.
func PlanStages(text string, rules []Rule) []string {
	lowered := strings.ToLower(text)

	var stages []string
	planned := make(map[string]bool)

	for _, rule := range rules {
		if planned[rule.Capability] {
			continue
		}
		if !keywordsMatch(lowered, rule.Keywords) {
			continue
		}
		if !requirementsMet(planned, rule.Requires) {
			continue
		}
		stages = append(stages, rule.Capability)
		planned[rule.Capability] = true
	}

	return stages
}

func keywordsMatch(lowered string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func requirementsMet(planned map[string]bool, requires []string) bool {
	for _, req := range requires {
		if !planned[req] {
			return false
		}
	}
	return true
}
