package pipeline

import (
	"context"
	"strings"
	"testing"

	"syllabus-gap/internal/domain"
)

func verifySummary() domain.EvidenceSummary {
	return domain.SummarizeEvidence([]domain.JobSource{{Company: "Stripe"}, {Company: "Netflix"}})
}

func TestEvidenceVerifier_Pass(t *testing.T) {
	llm := &fakeLLM{verify: `{"pass": true, "fail_reasons": [], "constraint_violations": {}, "retry_query_suggestions": [], "coverage_score": 85}`}
	out := NewEvidenceVerifier(llm, []string{"Stripe", "Netflix"}, nil).Verify(context.Background(), domain.DefaultConstraint(), verifySummary())
	if !out.IsPassed || out.CoverageScore != 85 {
		t.Fatalf("unexpected output %+v", out)
	}
	if out.FailReasons == nil || out.ConstraintViolations == nil || out.RetryQuerySuggestions == nil {
		t.Fatalf("expected non-nil collections")
	}
}

func TestEvidenceVerifier_AcceptsWholeFloatScore(t *testing.T) {
	llm := &fakeLLM{verify: `{"pass": true, "coverage_score": 60.0}`}
	out := NewEvidenceVerifier(llm, nil, nil).Verify(context.Background(), domain.DefaultConstraint(), verifySummary())
	if !out.IsPassed || out.CoverageScore != 60 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestEvidenceVerifier_AcceptsIsPassedKey(t *testing.T) {
	llm := &fakeLLM{verify: "```json\n" + `{"is_passed": false, "fail_reasons": ["too old"], "constraint_violations": {"time_window": {"oldest": "2021"}}, "coverage_score": 40}` + "\n```"}
	out := NewEvidenceVerifier(llm, nil, nil).Verify(context.Background(), domain.DefaultConstraint(), verifySummary())
	if out.IsPassed || out.CoverageScore != 40 {
		t.Fatalf("unexpected output %+v", out)
	}
	if out.ConstraintViolations["time_window"] != `{"oldest":"2021"}` {
		t.Fatalf("unexpected violations %#v", out.ConstraintViolations)
	}
}

func TestEvidenceVerifier_FailsClosed(t *testing.T) {
	replies := []string{
		"",
		"looks fine to me",
		`{"coverage_score": 90}`,
		`{"pass": true}`,
		`{"pass": true, "coverage_score": 140}`,
		`{"pass": true, "coverage_score": -3}`,
		`{"pass": true, "coverage_score": 72.5}`,
	}
	for _, reply := range replies {
		out := NewEvidenceVerifier(&fakeLLM{verify: reply}, nil, nil).Verify(context.Background(), domain.DefaultConstraint(), verifySummary())
		if out.IsPassed || out.CoverageScore != 0 {
			t.Fatalf("reply %q: expected fail-closed output, got %+v", reply, out)
		}
		if len(out.FailReasons) != 1 || !strings.HasPrefix(out.FailReasons[0], "Verification error: ") {
			t.Fatalf("reply %q: unexpected fail reasons %#v", reply, out.FailReasons)
		}
	}
}
