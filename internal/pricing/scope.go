package pricing

import (
	"encoding/json"
	"strings"
)

// ScopeRule restricts which selections a discount applies to. An empty list
// places no constraint on its category.
type ScopeRule struct {
	AllowedProjectTypes []string `json:"allowedProjectTypes,omitempty" yaml:"allowedProjectTypes,omitempty"`
	RequiredFeatures    []string `json:"requiredFeatures,omitempty" yaml:"requiredFeatures,omitempty"`
	ExcludedFeatures    []string `json:"excludedFeatures,omitempty" yaml:"excludedFeatures,omitempty"`
	AllowedClientTypes  []string `json:"allowedClientTypes,omitempty" yaml:"allowedClientTypes,omitempty"`
}

// IsUnrestricted reports whether the rule matches every candidate.
func (r ScopeRule) IsUnrestricted() bool {
	return len(r.AllowedProjectTypes) == 0 &&
		len(r.RequiredFeatures) == 0 &&
		len(r.ExcludedFeatures) == 0 &&
		len(r.AllowedClientTypes) == 0
}

// ScopeCandidate is the part of a selection a scope rule looks at.
type ScopeCandidate struct {
	ProjectTypeKey      string
	SelectedFeatureKeys []string
	ClientTypeKey       string
}

// MatchesScope reports whether every restriction configured in scope passes
// for the candidate.
func MatchesScope(scope ScopeRule, c ScopeCandidate) bool {
	if len(scope.AllowedProjectTypes) > 0 && !contains(scope.AllowedProjectTypes, c.ProjectTypeKey) {
		return false
	}
	if len(scope.AllowedClientTypes) > 0 && !contains(scope.AllowedClientTypes, c.ClientTypeKey) {
		return false
	}

	selected := make(map[string]struct{}, len(c.SelectedFeatureKeys))
	for _, k := range c.SelectedFeatureKeys {
		selected[k] = struct{}{}
	}
	for _, k := range scope.RequiredFeatures {
		if _, ok := selected[k]; !ok {
			return false
		}
	}
	for _, k := range scope.ExcludedFeatures {
		if _, ok := selected[k]; ok {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

var scopeAliases = map[string]string{
	"allowedProjectTypes": "allowedProjectTypes",
	"projectTypes":        "allowedProjectTypes",
	"requiredFeatures":    "requiredFeatures",
	"features":            "requiredFeatures",
	"excludedFeatures":    "excludedFeatures",
	"allowedClientTypes":  "allowedClientTypes",
	"clientTypes":         "allowedClientTypes",
}

// ParseScope decodes a stored appliesTo value. It never fails: anything it
// cannot read leaves the affected category unrestricted.
func ParseScope(raw []byte) ScopeRule {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ScopeRule{}
	}

	var rule ScopeRule
	for name, value := range fields {
		canonical, ok := scopeAliases[name]
		if !ok {
			continue
		}
		keys := decodeKeyList(value)
		if len(keys) == 0 {
			continue
		}
		switch canonical {
		case "allowedProjectTypes":
			rule.AllowedProjectTypes = appendUnique(rule.AllowedProjectTypes, keys)
		case "requiredFeatures":
			rule.RequiredFeatures = appendUnique(rule.RequiredFeatures, keys)
		case "excludedFeatures":
			rule.ExcludedFeatures = appendUnique(rule.ExcludedFeatures, keys)
		case "allowedClientTypes":
			rule.AllowedClientTypes = appendUnique(rule.AllowedClientTypes, keys)
		}
	}
	return rule
}

// decodeKeyList accepts a string or a list; non-string list items are dropped.
func decodeKeyList(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if k := strings.TrimSpace(single); k != "" {
			return []string{k}
		}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var k string
		if err := json.Unmarshal(item, &k); err != nil {
			continue
		}
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func appendUnique(dst, src []string) []string {
	for _, k := range src {
		if !contains(dst, k) {
			dst = append(dst, k)
		}
	}
	return dst
}
