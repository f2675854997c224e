// Package matcher provides a simple "rule" language that may be used
// inside dhcpester plugin directives. The matcher library is based on
// github.com/Knetic/govaluate
package matcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpester/core/events"
)

type (
	// Matcher is a handshake event matcher
	Matcher struct {
		// expr holds the pre-compiled expression
		expr *govaluate.EvaluableExpression
	}

	// ExprFunc can be used expose functions to matcher expressions
	ExprFunc func(args ...interface{}) (interface{}, error)
)

// SetupMatcher parses the current dispenser block and returns an event
// matcher
func SetupMatcher(c *caddy.Controller, fns ...map[string]ExprFunc) (*Matcher, error) {
	exprStr, err := ParseConditions(c)
	if err != nil {
		return nil, err
	}

	return SetupMatcherString(exprStr, fns...)
}

// SetupMatcherRemainingArgs uses all remaining arguments of the current line
// as the expression
func SetupMatcherRemainingArgs(c *caddy.Controller, fns ...map[string]ExprFunc) (*Matcher, error) {
	return SetupMatcherString(strings.Join(c.RemainingArgs(), " "), fns...)
}

// SetupMatcherArgsAndBlock combines the remaining arguments of the current
// line with the if conditions of the following block. Both must match
func SetupMatcherArgsAndBlock(c *caddy.Controller, fns ...map[string]ExprFunc) (*Matcher, error) {
	line := strings.Join(c.RemainingArgs(), " ")

	block, err := ParseConditions(c)
	if err != nil {
		return nil, err
	}

	expr := line
	switch {
	case line == "":
		expr = block
	case block != "":
		expr = "(" + line + ") && (" + block + ")"
	}

	return SetupMatcherString(expr, fns...)
}

// SetupMatcherString compiles exprStr. An empty expression matches
// every event
func SetupMatcherString(exprStr string, fns ...map[string]ExprFunc) (*Matcher, error) {
	functions := make(map[string]govaluate.ExpressionFunction)

	for _, m := range fns {
		for name, fn := range m {
			functions[name] = govaluate.ExpressionFunction(fn)
		}
	}

	var expr *govaluate.EvaluableExpression

	if exprStr != "" {
		var err error

		expr, err = govaluate.NewEvaluableExpressionWithFunctions(exprStr, functions)
		if err != nil {
			return nil, err
		}
	}

	return &Matcher{
		expr: expr,
	}, nil
}

// Params returns the expression variables for ev
func Params(ev *events.Event) map[string]interface{} {
	params := map[string]interface{}{
		"type":     string(ev.Type),
		"hwaddr":   "",
		"xid":      float64(ev.XID),
		"attempt":  float64(ev.Attempt),
		"seq":      float64(ev.Seq),
		"yourip":   "",
		"serverip": "",
		"sent":     ev.Sent(),
		"duration": ev.Duration().Seconds(),
	}

	if ev.HwAddr != nil {
		params["hwaddr"] = ev.HwAddr.String()
	}

	if len(ev.YourIP) > 0 {
		params["yourip"] = ev.YourIP.String()
	}

	if len(ev.ServerIP) > 0 {
		params["serverip"] = ev.ServerIP.String()
	}

	return params
}

// Match evaluates the expression stored in the matcher against ev
func (m *Matcher) Match(ctx context.Context, ev *events.Event) (bool, error) {
	if m.expr == nil {
		return true, nil
	}

	result, err := m.expr.Evaluate(Params(ev))
	if err != nil {
		return false, err
	}

	if b, ok := result.(bool); ok {
		return b, nil
	}

	return false, fmt.Errorf("expression did not evaluate to a boolean. instead, got: %v", result)
}

// Empty reports whether the matcher accepts every event
func (m *Matcher) Empty() bool {
	return m.expr == nil
}
