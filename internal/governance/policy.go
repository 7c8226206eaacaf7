package governance

import (
	"context"
	"fmt"
	"regexp"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request contains the inbound text to be evaluated before it reaches the
// planner.
type Request struct {
	Endpoint string
	Text     string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine evaluates inbound requests against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine is a basic implementation of PolicyEngine.
type DefaultPolicyEngine struct {
	DeniedEndpoints map[string]bool
	DeniedRegex     []*regexp.Regexp
	MaxTextLen      int
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedEndpoints: make(map[string]bool),
		DeniedRegex:     make([]*regexp.Regexp, 0),
		MaxTextLen:      8192,
	}
}

func (e *DefaultPolicyEngine) DenyEndpoint(name string) {
	e.DeniedEndpoints[name] = true
}

func (e *DefaultPolicyEngine) DenyText(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if e.DeniedEndpoints[req.Endpoint] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Endpoint '%s' is restricted by system policy", req.Endpoint),
		}, nil
	}

	if e.MaxTextLen > 0 && len(req.Text) > e.MaxTextLen {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Input exceeds maximum length of %d characters", e.MaxTextLen),
		}, nil
	}

	for _, re := range e.DeniedRegex {
		if re.MatchString(req.Text) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Input matches restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}
