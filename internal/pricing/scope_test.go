package pricing

import (
	"reflect"
	"testing"
)

func TestMatchesScope_EmptyRuleMatchesEverything(t *testing.T) {
	candidates := []ScopeCandidate{
		{},
		{ProjectTypeKey: "WEBSITE"},
		{ProjectTypeKey: "APP", SelectedFeatureKeys: []string{"auth"}, ClientTypeKey: "startup"},
	}
	for _, c := range candidates {
		if !MatchesScope(ScopeRule{}, c) {
			t.Fatalf("empty scope should match %+v", c)
		}
	}
}

func TestMatchesScope_ProjectTypeExclusionWins(t *testing.T) {
	scope := ScopeRule{
		AllowedProjectTypes: []string{"APP"},
		RequiredFeatures:    []string{"auth"},
		AllowedClientTypes:  []string{"startup"},
	}
	c := ScopeCandidate{ProjectTypeKey: "WEBSITE", SelectedFeatureKeys: []string{"auth"}, ClientTypeKey: "startup"}
	if MatchesScope(scope, c) {
		t.Fatalf("scope must reject project type outside allow-list")
	}

	c.ProjectTypeKey = "APP"
	if !MatchesScope(scope, c) {
		t.Fatalf("scope should match once project type is allowed")
	}
}

func TestMatchesScope_Features(t *testing.T) {
	scope := ScopeRule{
		RequiredFeatures: []string{"auth", "payments"},
		ExcludedFeatures: []string{"i18n"},
	}

	cases := []struct {
		name     string
		features []string
		want     bool
	}{
		{"all required", []string{"payments", "auth"}, true},
		{"missing one", []string{"auth"}, false},
		{"excluded present", []string{"auth", "payments", "i18n"}, false},
		{"extra allowed", []string{"auth", "payments", "blog"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MatchesScope(scope, ScopeCandidate{SelectedFeatureKeys: tc.features})
			if got != tc.want {
				t.Fatalf("MatchesScope = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchesScope_ClientType(t *testing.T) {
	scope := ScopeRule{AllowedClientTypes: []string{"nonprofit", "student"}}
	if !MatchesScope(scope, ScopeCandidate{ClientTypeKey: "student"}) {
		t.Fatalf("student should match")
	}
	if MatchesScope(scope, ScopeCandidate{ClientTypeKey: "enterprise"}) {
		t.Fatalf("enterprise should not match")
	}
}

func TestParseScope(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want ScopeRule
	}{
		{"empty object", `{}`, ScopeRule{}},
		{"malformed json", `{"allowedProjectTypes": [`, ScopeRule{}},
		{"not an object", `["WEBSITE"]`, ScopeRule{}},
		{"null", `null`, ScopeRule{}},
		{
			"canonical",
			`{"allowedProjectTypes":["WEBSITE"],"requiredFeatures":["auth"],"excludedFeatures":["i18n"],"allowedClientTypes":["startup"]}`,
			ScopeRule{
				AllowedProjectTypes: []string{"WEBSITE"},
				RequiredFeatures:    []string{"auth"},
				ExcludedFeatures:    []string{"i18n"},
				AllowedClientTypes:  []string{"startup"},
			},
		},
		{"legacy alias and bare string", `{"projectTypes":"APP","clientTypes":["smb"]}`, ScopeRule{
			AllowedProjectTypes: []string{"APP"},
			AllowedClientTypes:  []string{"smb"},
		}},
		{"wrong item types dropped", `{"requiredFeatures":["auth", 3, null, " "]}`, ScopeRule{RequiredFeatures: []string{"auth"}}},
		{"wrong category type ignored", `{"allowedProjectTypes": {"a": 1}, "unknown": ["x"]}`, ScopeRule{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseScope([]byte(tc.raw))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseScope(%s) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}
