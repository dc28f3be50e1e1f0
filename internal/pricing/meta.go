package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Meta setting keys as stored by the model store.
const (
	MetaPageCostPerPage = "pageCostPerPage"
	MetaRangePercent    = "rangePercent"
	MetaDefaultCurrency = "defaultCurrency"
	MetaProjectMinimums = "projectMinimums"
)

const (
	defaultRangePercent = 0.18
	defaultCurrency     = "ILS"
)

// Meta holds model-wide pricing settings.
type Meta struct {
	PageCostPerPage float64            `json:"pageCostPerPage" yaml:"pageCostPerPage"`
	RangePercent    float64            `json:"rangePercent" yaml:"rangePercent"`
	DefaultCurrency string             `json:"defaultCurrency" yaml:"defaultCurrency"`
	ProjectMinimums map[string]float64 `json:"projectMinimums" yaml:"projectMinimums"`
}

// DefaultMeta returns the settings used when the store has none.
func DefaultMeta() Meta {
	return Meta{
		RangePercent:    defaultRangePercent,
		DefaultCurrency: defaultCurrency,
		ProjectMinimums: map[string]float64{},
	}
}

// Apply folds a typed setting into the meta.
func (m *Meta) Apply(s MetaSetting) {
	s.applyTo(m)
}

// Settings splits the meta back into its typed settings, in a stable order.
func (m Meta) Settings() []MetaSetting {
	return []MetaSetting{
		PageCostPerPage(m.PageCostPerPage),
		RangePercent(m.RangePercent),
		DefaultCurrency(m.DefaultCurrency),
		ProjectMinimums(m.ProjectMinimums),
	}
}

func (m Meta) validate() error {
	for _, s := range m.Settings() {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidModel, err)
		}
	}
	return nil
}

func (m Meta) clone() Meta {
	out := m
	out.ProjectMinimums = make(map[string]float64, len(m.ProjectMinimums))
	for k, v := range m.ProjectMinimums {
		out.ProjectMinimums[k] = v
	}
	return out
}

// MetaSetting is one typed meta value. The set of implementations is closed.
type MetaSetting interface {
	Key() string
	Validate() error
	applyTo(*Meta)
}

// PageCostPerPage is the cost added for every page.
type PageCostPerPage float64

// RangePercent is the fraction used to derive the confidence range.
type RangePercent float64

// DefaultCurrency is the ISO currency code shown with estimates.
type DefaultCurrency string

// ProjectMinimums maps a project type key to its minimum price.
type ProjectMinimums map[string]float64

func (PageCostPerPage) Key() string { return MetaPageCostPerPage }
func (RangePercent) Key() string    { return MetaRangePercent }
func (DefaultCurrency) Key() string { return MetaDefaultCurrency }
func (ProjectMinimums) Key() string { return MetaProjectMinimums }

func (v PageCostPerPage) Validate() error {
	if !finite(float64(v)) || v < 0 {
		return fmt.Errorf("%s must be a non-negative number", MetaPageCostPerPage)
	}
	return nil
}

func (v RangePercent) Validate() error {
	if !finite(float64(v)) || v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1", MetaRangePercent)
	}
	return nil
}

func (v DefaultCurrency) Validate() error {
	code := strings.TrimSpace(string(v))
	if len(code) != 3 {
		return fmt.Errorf("%s must be a 3-letter currency code", MetaDefaultCurrency)
	}
	return nil
}

func (v ProjectMinimums) Validate() error {
	for key, min := range v {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%s has an empty project type key", MetaProjectMinimums)
		}
		if !finite(min) || min < 0 {
			return fmt.Errorf("%s[%s] must be a non-negative number", MetaProjectMinimums, key)
		}
	}
	return nil
}

func (v PageCostPerPage) applyTo(m *Meta) { m.PageCostPerPage = float64(v) }
func (v RangePercent) applyTo(m *Meta)    { m.RangePercent = float64(v) }
func (v DefaultCurrency) applyTo(m *Meta) {
	m.DefaultCurrency = strings.ToUpper(strings.TrimSpace(string(v)))
}
func (v ProjectMinimums) applyTo(m *Meta) {
	m.ProjectMinimums = make(map[string]float64, len(v))
	for k, min := range v {
		m.ProjectMinimums[k] = min
	}
}

// ParseMetaSetting decodes the JSON value stored under key into its typed
// setting and validates it.
func ParseMetaSetting(key string, raw []byte) (MetaSetting, error) {
	var s MetaSetting
	switch key {
	case MetaPageCostPerPage:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		s = PageCostPerPage(v)
	case MetaRangePercent:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		s = RangePercent(v)
	case MetaDefaultCurrency:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		s = DefaultCurrency(v)
	case MetaProjectMinimums:
		v := map[string]float64{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		s = ProjectMinimums(v)
	default:
		return nil, fmt.Errorf("unknown meta key %q", key)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// EncodeMetaSetting is the inverse of ParseMetaSetting.
func EncodeMetaSetting(s MetaSetting) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
