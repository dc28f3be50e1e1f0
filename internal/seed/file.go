package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/estimator/internal/pricing"
)

//go:embed default_pricing.yaml
var defaultPricingYAML []byte

// File is the YAML shape of a pricing model seed.
type File struct {
	ProjectTypes     []pricing.ProjectType     `yaml:"projectTypes"`
	Features         []pricing.Feature         `yaml:"features"`
	MultiplierGroups []pricing.MultiplierGroup `yaml:"multiplierGroups"`
	Meta             MetaFile                  `yaml:"meta"`
	Discounts        []Discount                `yaml:"discounts"`
}

// Discount is a seeded discount code. A missing active flag means active.
type Discount struct {
	pricing.Discount `yaml:",inline"`
	Active           *bool `yaml:"active,omitempty"`
}

// IsActive reports whether the code should be redeemable after seeding.
func (d Discount) IsActive() bool {
	return d.Active == nil || *d.Active
}

// MetaFile lists the meta settings a seed file sets. Absent keys keep their
// defaults.
type MetaFile struct {
	PageCostPerPage *float64           `yaml:"pageCostPerPage,omitempty"`
	RangePercent    *float64           `yaml:"rangePercent,omitempty"`
	DefaultCurrency *string            `yaml:"defaultCurrency,omitempty"`
	ProjectMinimums map[string]float64 `yaml:"projectMinimums,omitempty"`
}

// Settings returns the typed meta settings present in the file.
func (m MetaFile) Settings() []pricing.MetaSetting {
	var out []pricing.MetaSetting
	if m.PageCostPerPage != nil {
		out = append(out, pricing.PageCostPerPage(*m.PageCostPerPage))
	}
	if m.RangePercent != nil {
		out = append(out, pricing.RangePercent(*m.RangePercent))
	}
	if m.DefaultCurrency != nil {
		out = append(out, pricing.DefaultCurrency(*m.DefaultCurrency))
	}
	if m.ProjectMinimums != nil {
		out = append(out, pricing.ProjectMinimums(m.ProjectMinimums))
	}
	return out
}

// Default returns the embedded pricing model.
func Default() (*File, error) {
	return Parse(bytes.NewReader(defaultPricingYAML))
}

// LoadFile reads a pricing model seed from path.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	file, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return file, nil
}

// Parse decodes and validates a seed document. Unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed yaml: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks the file builds a valid model and its discounts are well
// formed.
func (f *File) Validate() error {
	meta := pricing.DefaultMeta()
	for _, s := range f.Meta.Settings() {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("meta %s: %w", s.Key(), err)
		}
		meta.Apply(s)
	}
	if _, err := pricing.NewModel(f.ProjectTypes, f.Features, f.MultiplierGroups, meta); err != nil {
		return err
	}

	seen := make(map[string]bool, len(f.Discounts))
	for _, d := range f.Discounts {
		code := pricing.NormalizeCode(d.Code)
		if code == "" {
			return errors.New("discount code is required")
		}
		if seen[code] {
			return fmt.Errorf("duplicate discount code %q", code)
		}
		seen[code] = true
		if err := d.Validate(); err != nil {
			return fmt.Errorf("discount %s: %w", code, err)
		}
	}
	return nil
}

// Marshal encodes the file as YAML.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode seed yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode seed yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// FromModel converts a model snapshot back into seed form, so an existing
// database can be exported and replayed elsewhere.
func FromModel(m *pricing.Model, discounts []Discount) *File {
	meta := m.Meta
	file := &File{
		ProjectTypes:     m.ProjectTypes,
		Features:         m.Features,
		MultiplierGroups: m.MultiplierGroups,
		Meta: MetaFile{
			PageCostPerPage: &meta.PageCostPerPage,
			RangePercent:    &meta.RangePercent,
			DefaultCurrency: &meta.DefaultCurrency,
		},
		Discounts: discounts,
	}
	if len(meta.ProjectMinimums) > 0 {
		file.Meta.ProjectMinimums = meta.ProjectMinimums
	}
	return file
}
