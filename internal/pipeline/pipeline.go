// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline runs one plan generation end to end:
// validate profile, build prompt, call the completion service once, and
// normalize the output.
//
// Once raw completion text exists, generation always succeeds; unusable text
// becomes a degraded plan. Failures before that point are classified as
// configuration, upstream, or transport errors.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/settlesmart/internal/plan"
	"github.com/jeranaias/settlesmart/internal/profile"
	"github.com/jeranaias/settlesmart/internal/prompt"
)

// Completer sends one prompt to the text-generation service and returns the
// raw completion text.
type Completer interface {
	Complete(ctx context.Context, req prompt.Request) (string, error)
}

// Result is the outcome of a successful generation.
type Result struct {
	Plan    plan.Plan
	Profile profile.Profile
	Elapsed time.Duration
}

// Degraded reports whether the plan is the fallback for unusable output.
func (r Result) Degraded() bool {
	return r.Plan.Degraded
}

// Pipeline generates plans. It holds no per-request state and is safe for
// concurrent use.
type Pipeline struct {
	completer Completer
	strategy  prompt.Strategy
	validator profile.Validator
	logger    *zap.Logger
}

// New creates a pipeline using the preferred output strategy.
func New(completer Completer) *Pipeline {
	return &Pipeline{
		completer: completer,
		strategy:  prompt.DefaultStrategy,
		logger:    zap.NewNop(),
	}
}

// WithStrategy sets the output contract strategy.
func (p *Pipeline) WithStrategy(s prompt.Strategy) *Pipeline {
	p.strategy = s
	return p
}

// WithValidator sets the profile validator, mainly to pin the clock.
func (p *Pipeline) WithValidator(v profile.Validator) *Pipeline {
	p.validator = v
	return p
}

// WithLogger sets the logger.
func (p *Pipeline) WithLogger(logger *zap.Logger) *Pipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Strategy returns the configured output strategy.
func (p *Pipeline) Strategy() prompt.Strategy {
	return p.strategy
}

// Generate runs one generation for raw. The call blocks until the completion
// service answers, the transport times out, or ctx is done.
func (p *Pipeline) Generate(ctx context.Context, raw profile.Raw) (Result, error) {
	start := time.Now()

	prof := p.validator.Validate(raw)
	if len(prof.Coerced) > 0 {
		p.logger.Debug("profile fields defaulted", zap.Strings("fields", prof.Coerced))
	}

	req := prompt.Build(prof, p.strategy)

	text, err := p.completer.Complete(ctx, req)
	if err != nil {
		cerr := classify(err)
		p.logger.Warn("plan generation failed",
			zap.Error(cerr),
			zap.Duration("elapsed", time.Since(start)))
		return Result{}, cerr
	}

	// Results that arrive after the caller gave up are discarded.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, &Error{Class: ErrTransport, Err: ctxErr}
	}

	pl, perr := plan.Parse(text)
	if perr != nil {
		pl = plan.Degraded()
		p.logger.Warn("completion output unusable, returning fallback plan",
			zap.Error(perr),
			zap.Bool("too_large", errors.Is(perr, plan.ErrTooLarge)),
			zap.Int("raw_bytes", len(text)))
	}
	res := Result{Plan: pl, Profile: prof, Elapsed: time.Since(start)}
	p.logger.Info("plan generated",
		zap.String("origin", prof.Origin),
		zap.String("destination", prof.Destination),
		zap.String("strategy", string(req.Strategy)),
		zap.Int("weeks", len(pl.Weeks)),
		zap.Int("tasks", pl.TaskCount()),
		zap.Bool("degraded", pl.Degraded),
		zap.Duration("elapsed", res.Elapsed))

	return res, nil
}
