package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Well-known multiplier group keys.
const (
	GroupComplexity = "complexity"
	GroupTimeline   = "timeline"
	GroupTech       = "tech"
	GroupClientType = "clientType"
)

// ErrInvalidModel is wrapped by every NewModel validation failure.
var ErrInvalidModel = errors.New("invalid pricing model")

// ProjectType is a kind of project with its fixed starting cost.
type ProjectType struct {
	Key         string  `json:"key" yaml:"key"`
	DisplayName string  `json:"displayName" yaml:"displayName"`
	BaseRateILS float64 `json:"baseRateIls" yaml:"baseRateIls"`
	Order       int     `json:"order" yaml:"order"`
	Active      bool    `json:"active" yaml:"active"`
}

// Feature is an optional add-on priced at a flat cost.
type Feature struct {
	Key            string  `json:"key" yaml:"key"`
	DisplayName    string  `json:"displayName" yaml:"displayName"`
	DefaultCostILS float64 `json:"defaultCostIls" yaml:"defaultCostIls"`
	Order          int     `json:"order" yaml:"order"`
	Active         bool    `json:"active" yaml:"active"`
}

// MultiplierOption is one selectable value inside a MultiplierGroup.
type MultiplierOption struct {
	Key         string  `json:"optionKey" yaml:"optionKey"`
	DisplayName string  `json:"displayName" yaml:"displayName"`
	Value       float64 `json:"value" yaml:"value"`
	IsFixed     bool    `json:"isFixed" yaml:"isFixed"`
	Order       int     `json:"order" yaml:"order"`
	Active      bool    `json:"active" yaml:"active"`
}

// MultiplierGroup is a named axis whose selected option scales the subtotal.
type MultiplierGroup struct {
	Key         string             `json:"key" yaml:"key"`
	DisplayName string             `json:"displayName" yaml:"displayName"`
	Order       int                `json:"order" yaml:"order"`
	Active      bool               `json:"active" yaml:"active"`
	Options     []MultiplierOption `json:"options" yaml:"options"`

	// DefaultOptionKey is resolved by NewModel: the active option with the
	// lowest Order. Empty when the group has no active option.
	DefaultOptionKey string `json:"defaultOptionKey" yaml:"-"`
}

// Option returns the active option with the given key.
func (g MultiplierGroup) Option(key string) (MultiplierOption, bool) {
	for _, opt := range g.Options {
		if opt.Key == key && opt.Active {
			return opt, true
		}
	}
	return MultiplierOption{}, false
}

// Model is an immutable pricing snapshot. Build it with NewModel.
type Model struct {
	ProjectTypes     []ProjectType     `json:"projectTypes"`
	Features         []Feature         `json:"features"`
	MultiplierGroups []MultiplierGroup `json:"multiplierGroups"`
	Meta             Meta              `json:"meta"`

	projectTypes map[string]int
	features     map[string]int
	groups       map[string]int
}

// NewModel validates the supplied configuration, orders every list by its
// configured order and resolves each group's default option.
func NewModel(projectTypes []ProjectType, features []Feature, groups []MultiplierGroup, meta Meta) (*Model, error) {
	if strings.TrimSpace(meta.DefaultCurrency) == "" {
		meta.DefaultCurrency = defaultCurrency
	}
	if err := meta.validate(); err != nil {
		return nil, err
	}

	m := &Model{
		ProjectTypes:     append([]ProjectType(nil), projectTypes...),
		Features:         append([]Feature(nil), features...),
		MultiplierGroups: make([]MultiplierGroup, 0, len(groups)),
		Meta:             meta.clone(),
		projectTypes:     make(map[string]int, len(projectTypes)),
		features:         make(map[string]int, len(features)),
		groups:           make(map[string]int, len(groups)),
	}

	sort.SliceStable(m.ProjectTypes, func(i, j int) bool { return m.ProjectTypes[i].Order < m.ProjectTypes[j].Order })
	for i, pt := range m.ProjectTypes {
		if strings.TrimSpace(pt.Key) == "" {
			return nil, fmt.Errorf("%w: project type key is required", ErrInvalidModel)
		}
		if pt.BaseRateILS < 0 {
			return nil, fmt.Errorf("%w: project type %q has negative base rate", ErrInvalidModel, pt.Key)
		}
		if _, dup := m.projectTypes[pt.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate project type %q", ErrInvalidModel, pt.Key)
		}
		m.projectTypes[pt.Key] = i
	}

	sort.SliceStable(m.Features, func(i, j int) bool { return m.Features[i].Order < m.Features[j].Order })
	for i, f := range m.Features {
		if strings.TrimSpace(f.Key) == "" {
			return nil, fmt.Errorf("%w: feature key is required", ErrInvalidModel)
		}
		if f.DefaultCostILS < 0 {
			return nil, fmt.Errorf("%w: feature %q has negative cost", ErrInvalidModel, f.Key)
		}
		if _, dup := m.features[f.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrInvalidModel, f.Key)
		}
		m.features[f.Key] = i
	}

	for _, g := range groups {
		if strings.TrimSpace(g.Key) == "" {
			return nil, fmt.Errorf("%w: multiplier group key is required", ErrInvalidModel)
		}
		if _, dup := m.groups[g.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate multiplier group %q", ErrInvalidModel, g.Key)
		}
		resolved, err := resolveGroup(g)
		if err != nil {
			return nil, err
		}
		m.groups[g.Key] = -1
		m.MultiplierGroups = append(m.MultiplierGroups, resolved)
	}
	sort.SliceStable(m.MultiplierGroups, func(i, j int) bool { return m.MultiplierGroups[i].Order < m.MultiplierGroups[j].Order })
	for i, g := range m.MultiplierGroups {
		m.groups[g.Key] = i
	}

	return m, nil
}

func resolveGroup(g MultiplierGroup) (MultiplierGroup, error) {
	g.Options = append([]MultiplierOption(nil), g.Options...)
	sort.SliceStable(g.Options, func(i, j int) bool { return g.Options[i].Order < g.Options[j].Order })

	seen := make(map[string]struct{}, len(g.Options))
	g.DefaultOptionKey = ""
	for _, opt := range g.Options {
		if strings.TrimSpace(opt.Key) == "" {
			return g, fmt.Errorf("%w: group %q has an option without key", ErrInvalidModel, g.Key)
		}
		if _, dup := seen[opt.Key]; dup {
			return g, fmt.Errorf("%w: group %q has duplicate option %q", ErrInvalidModel, g.Key, opt.Key)
		}
		seen[opt.Key] = struct{}{}
		if opt.Value <= 0 {
			return g, fmt.Errorf("%w: option %s.%s must have a positive value", ErrInvalidModel, g.Key, opt.Key)
		}
		if opt.Active && g.DefaultOptionKey == "" {
			g.DefaultOptionKey = opt.Key
		}
	}
	return g, nil
}

// ProjectType looks up a project type by key, active or not.
func (m *Model) ProjectType(key string) (ProjectType, bool) {
	i, ok := m.projectTypes[key]
	if !ok {
		return ProjectType{}, false
	}
	return m.ProjectTypes[i], true
}

// Feature looks up a feature by key, active or not.
func (m *Model) Feature(key string) (Feature, bool) {
	i, ok := m.features[key]
	if !ok {
		return Feature{}, false
	}
	return m.Features[i], true
}

// Group looks up a multiplier group by key, active or not.
func (m *Model) Group(key string) (MultiplierGroup, bool) {
	i, ok := m.groups[key]
	if !ok {
		return MultiplierGroup{}, false
	}
	return m.MultiplierGroups[i], true
}
