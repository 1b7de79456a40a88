package statutory

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/statutory"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const supportedFileVersion = 1

//go:embed brackets/default.yaml
var defaultBrackets []byte

type bracketsFile struct {
	Version     int             `yaml:"version"`
	BracketSets []bracketSetDoc `yaml:"bracket_sets"`
}

type bracketSetDoc struct {
	Version              string   `yaml:"version"`
	EffectiveFrom        string   `yaml:"effective_from"`
	EffectiveTo          string   `yaml:"effective_to"`
	Currency             string   `yaml:"currency"`
	MinimumWage          string   `yaml:"minimum_wage"`
	StandardMonthlyHours string   `yaml:"standard_monthly_hours"`
	ContributionA        tableDoc `yaml:"contribution_a"`
	ContributionB        tableDoc `yaml:"contribution_b"`
	IncomeTax            tableDoc `yaml:"income_tax"`
}

type tableDoc struct {
	FixedAmount string       `yaml:"fixed_amount"`
	Brackets    []bracketDoc `yaml:"brackets"`
}

type bracketDoc struct {
	UpTo string `yaml:"up_to"`
	Rate string `yaml:"rate"`
}

// Load reads bracket sets from path, or the embedded defaults when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Parse(defaultBrackets)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bracket file: %w", err)
	}
	return Parse(b)
}

// Parse decodes a versioned bracket file and builds a validated registry.
func Parse(data []byte) (*Registry, error) {
	var f bracketsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode bracket file: %w", err)
	}
	if f.Version != supportedFileVersion {
		return nil, fmt.Errorf("%w: %d", statutory.ErrUnsupportedFile, f.Version)
	}

	sets := make([]statutory.BracketSet, 0, len(f.BracketSets))
	for _, doc := range f.BracketSets {
		set, err := doc.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", statutory.ErrInvalidBracketSet, doc.Version, err)
		}
		sets = append(sets, set)
	}
	return NewRegistry(sets)
}

func (d bracketSetDoc) toDomain() (statutory.BracketSet, error) {
	from, err := time.Parse("2006-01-02", d.EffectiveFrom)
	if err != nil {
		return statutory.BracketSet{}, fmt.Errorf("effective_from: %w", err)
	}

	var to *time.Time
	if d.EffectiveTo != "" {
		t, err := time.Parse("2006-01-02", d.EffectiveTo)
		if err != nil {
			return statutory.BracketSet{}, fmt.Errorf("effective_to: %w", err)
		}
		to = &t
	}

	minWage, err := parseAmount(d.MinimumWage)
	if err != nil {
		return statutory.BracketSet{}, fmt.Errorf("minimum_wage: %w", err)
	}
	hours, err := parseAmount(d.StandardMonthlyHours)
	if err != nil {
		return statutory.BracketSet{}, fmt.Errorf("standard_monthly_hours: %w", err)
	}

	set := statutory.BracketSet{
		Version:              d.Version,
		EffectiveFrom:        from,
		EffectiveTo:          to,
		Currency:             d.Currency,
		MinimumWage:          minWage,
		StandardMonthlyHours: hours,
	}
	if set.ContributionA, err = d.ContributionA.toDomain(); err != nil {
		return statutory.BracketSet{}, fmt.Errorf("contribution_a: %w", err)
	}
	if set.ContributionB, err = d.ContributionB.toDomain(); err != nil {
		return statutory.BracketSet{}, fmt.Errorf("contribution_b: %w", err)
	}
	if set.IncomeTax, err = d.IncomeTax.toDomain(); err != nil {
		return statutory.BracketSet{}, fmt.Errorf("income_tax: %w", err)
	}
	return set, nil
}

func (d tableDoc) toDomain() (statutory.Table, error) {
	fixed := decimal.Zero
	if d.FixedAmount != "" {
		v, err := parseAmount(d.FixedAmount)
		if err != nil {
			return statutory.Table{}, fmt.Errorf("fixed_amount: %w", err)
		}
		fixed = v
	}

	brackets := make([]statutory.Bracket, 0, len(d.Brackets))
	for i, b := range d.Brackets {
		rate, err := parseAmount(b.Rate)
		if err != nil {
			return statutory.Table{}, fmt.Errorf("bracket %d rate: %w", i, err)
		}
		bracket := statutory.Bracket{Rate: rate}
		if b.UpTo != "" {
			upTo, err := parseAmount(b.UpTo)
			if err != nil {
				return statutory.Table{}, fmt.Errorf("bracket %d up_to: %w", i, err)
			}
			bracket.UpTo = &upTo
		}
		brackets = append(brackets, bracket)
	}
	return statutory.Table{Brackets: brackets, FixedAmount: fixed}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("value is required")
	}
	return decimal.NewFromString(s)
}
