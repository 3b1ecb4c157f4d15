package domain

import (
	"errors"
	"fmt"
	"strings"
)

const EvidenceDateRangeRecent = "recent"

type EvidenceSummary struct {
	JobCount  int      `json:"job_count"`
	Companies []string `json:"companies"`
	DateRange string   `json:"date_range"`
}

// SummarizeEvidence lists distinct non-empty companies in first-seen order.
func SummarizeEvidence(sources []JobSource) EvidenceSummary {
	seen := make(map[string]struct{}, len(sources))
	companies := make([]string, 0, len(sources))
	for _, s := range sources {
		c := strings.TrimSpace(s.Company)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		companies = append(companies, c)
	}
	return EvidenceSummary{
		JobCount:  len(sources),
		Companies: companies,
		DateRange: EvidenceDateRangeRecent,
	}
}

type VerifierOutput struct {
	IsPassed              bool              `json:"is_passed"`
	FailReasons           []string          `json:"fail_reasons"`
	ConstraintViolations  map[string]string `json:"constraint_violations"`
	RetryQuerySuggestions []string          `json:"retry_query_suggestions"`
	CoverageScore         int               `json:"coverage_score"`
}

var ErrInvalidVerification = errors.New("invalid verification")

func (v *VerifierOutput) Validate() error {
	if v.CoverageScore < 0 || v.CoverageScore > 100 {
		return fmt.Errorf("%w: coverage_score %v out of range", ErrInvalidVerification, v.CoverageScore)
	}
	if v.FailReasons == nil {
		v.FailReasons = []string{}
	}
	if v.ConstraintViolations == nil {
		v.ConstraintViolations = map[string]string{}
	}
	if v.RetryQuerySuggestions == nil {
		v.RetryQuerySuggestions = []string{}
	}
	return nil
}

// VerificationFailed is the fail-closed result used when verification
// itself could not run.
func VerificationFailed(err error) VerifierOutput {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return VerifierOutput{
		IsPassed:              false,
		FailReasons:           []string{"Verification error: " + msg},
		ConstraintViolations:  map[string]string{},
		RetryQuerySuggestions: []string{},
		CoverageScore:         0,
	}
}
