package domain

import (
	"errors"
	"fmt"
	"strings"
)

type CompanyTier string

const (
	CompanyTierTop CompanyTier = "top_companies"
	CompanyTierAny CompanyTier = "any"
)

type TimeUnit string

const (
	TimeUnitDays   TimeUnit = "days"
	TimeUnitMonths TimeUnit = "months"
	TimeUnitYears  TimeUnit = "years"
)

type TimeWindow struct {
	Unit  TimeUnit `json:"unit"`
	Value int      `json:"value"`
}

// Constraint is the structured form of a free-text search instruction.
type Constraint struct {
	TimeWindow        *TimeWindow `json:"time_window"`
	RoleKeywords      []string    `json:"role_keywords"`
	Location          *string     `json:"location"`
	CompanyTier       CompanyTier `json:"company_tier"`
	CompanyAllowlist  []string    `json:"company_allowlist"`
	Seniority         *string     `json:"seniority"`
	SourcesPreference []string    `json:"sources_preference"`
}

var ErrInvalidConstraint = errors.New("invalid constraint")

// DefaultConstraint is used whenever parsing fails.
func DefaultConstraint() Constraint {
	return Constraint{
		CompanyTier:  CompanyTierAny,
		RoleKeywords: []string{},
	}
}

// Validate checks the closed-set fields and tidies free-text ones in place.
func (c *Constraint) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil", ErrInvalidConstraint)
	}
	switch c.CompanyTier {
	case CompanyTierTop, CompanyTierAny:
	default:
		return fmt.Errorf("%w: company_tier %q", ErrInvalidConstraint, c.CompanyTier)
	}
	if c.TimeWindow != nil {
		switch c.TimeWindow.Unit {
		case TimeUnitDays, TimeUnitMonths, TimeUnitYears:
		default:
			return fmt.Errorf("%w: time_window unit %q", ErrInvalidConstraint, c.TimeWindow.Unit)
		}
		if c.TimeWindow.Value < 1 {
			return fmt.Errorf("%w: time_window value %d", ErrInvalidConstraint, c.TimeWindow.Value)
		}
	}

	c.RoleKeywords = compactStrings(c.RoleKeywords)
	if c.CompanyAllowlist != nil {
		c.CompanyAllowlist = compactStrings(c.CompanyAllowlist)
	}
	if c.SourcesPreference != nil {
		c.SourcesPreference = compactStrings(c.SourcesPreference)
	}
	c.Location = trimOptional(c.Location)
	c.Seniority = trimOptional(c.Seniority)
	return nil
}

// PrimaryRole is the first role keyword, or "" when none were given.
func (c Constraint) PrimaryRole() string {
	if len(c.RoleKeywords) == 0 {
		return ""
	}
	return c.RoleKeywords[0]
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
