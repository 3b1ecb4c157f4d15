package pipeline

import (
	"context"

	"syllabus-gap/internal/domain"
	"syllabus-gap/internal/llm"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/prompts"
)

// ConstraintParser turns a free-text instruction into a Constraint. It never
// fails: anything unusable yields domain.DefaultConstraint.
type ConstraintParser struct {
	llm llm.Completer
	log *logger.Logger
}

func NewConstraintParser(completer llm.Completer, log *logger.Logger) *ConstraintParser {
	if log == nil {
		log = logger.Nop()
	}
	return &ConstraintParser{llm: completer, log: log}
}

func (p *ConstraintParser) Parse(ctx context.Context, instruction string) domain.Constraint {
	prompt, err := prompts.ConstraintParsing(instruction)
	if err != nil {
		p.log.Error("constraint prompt render failed", "step", "parse", "err", err)
		return domain.DefaultConstraint()
	}

	reply, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		p.log.Warn("constraint parsing failed, using defaults", "step", "parse", "err", err)
		return domain.DefaultConstraint()
	}

	var c domain.Constraint
	if err := llm.DecodeJSON(reply, &c); err != nil {
		p.log.Warn("constraint reply malformed, using defaults", "step", "parse", "err", err)
		return domain.DefaultConstraint()
	}
	if err := c.Validate(); err != nil {
		p.log.Warn("constraint reply rejected, using defaults", "step", "parse", "err", err)
		return domain.DefaultConstraint()
	}
	return c
}
