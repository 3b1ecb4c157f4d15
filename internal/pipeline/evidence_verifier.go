package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/llm"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/prompts"
)

type EvidenceVerifier struct {
	llm          llm.Completer
	topCompanies []string
	log          *logger.Logger
}

func NewEvidenceVerifier(completer llm.Completer, topCompanies []string, log *logger.Logger) *EvidenceVerifier {
	if log == nil {
		log = logger.Nop()
	}
	return &EvidenceVerifier{llm: completer, topCompanies: topCompanies, log: log}
}

type verifierReply struct {
	Pass                  *bool          `json:"pass"`
	IsPassed              *bool          `json:"is_passed"`
	FailReasons           []string       `json:"fail_reasons"`
	ConstraintViolations  map[string]any `json:"constraint_violations"`
	RetryQuerySuggestions []string       `json:"retry_query_suggestions"`
	CoverageScore         *float64       `json:"coverage_score"`
}

// Verify asks the model whether the evidence satisfies the constraints. Any
// failure is reported as a failed verification, never as passed.
func (v *EvidenceVerifier) Verify(ctx context.Context, constraints domain.Constraint, summary domain.EvidenceSummary) domain.VerifierOutput {
	out, err := v.verify(ctx, constraints, summary)
	if err != nil {
		v.log.Warn("verification failed closed", "step", "verify", "err", err)
		return domain.VerificationFailed(err)
	}
	return out
}

func (v *EvidenceVerifier) verify(ctx context.Context, constraints domain.Constraint, summary domain.EvidenceSummary) (domain.VerifierOutput, error) {
	cj, err := json.MarshalIndent(constraints, "", "  ")
	if err != nil {
		return domain.VerifierOutput{}, err
	}
	sj, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return domain.VerifierOutput{}, err
	}
	prompt, err := prompts.Verifier(prompts.VerifierInput{
		TopCompanies:      strings.Join(v.topCompanies, ", "),
		ParsedConstraints: string(cj),
		EvidenceSummary:   string(sj),
	})
	if err != nil {
		return domain.VerifierOutput{}, err
	}

	reply, err := v.llm.Complete(ctx, prompt)
	if err != nil {
		return domain.VerifierOutput{}, err
	}

	var r verifierReply
	if err := llm.DecodeJSON(reply, &r); err != nil {
		return domain.VerifierOutput{}, err
	}

	passed := r.Pass
	if passed == nil {
		passed = r.IsPassed
	}
	if passed == nil {
		return domain.VerifierOutput{}, errors.New("reply missing pass")
	}
	if r.CoverageScore == nil {
		return domain.VerifierOutput{}, errors.New("reply missing coverage_score")
	}
	score := *r.CoverageScore
	if score < 0 || score > 100 || score != math.Trunc(score) {
		return domain.VerifierOutput{}, fmt.Errorf("%w: coverage_score %v is not an integer in [0,100]", domain.ErrInvalidVerification, score)
	}

	out := domain.VerifierOutput{
		IsPassed:              *passed,
		FailReasons:           r.FailReasons,
		ConstraintViolations:  stringifyViolations(r.ConstraintViolations),
		RetryQuerySuggestions: r.RetryQuerySuggestions,
		CoverageScore:         int(score),
	}
	if err := out.Validate(); err != nil {
		return domain.VerifierOutput{}, err
	}
	return out, nil
}

func stringifyViolations(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			b, err := json.Marshal(t)
			if err != nil {
				out[k] = fmt.Sprint(t)
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
