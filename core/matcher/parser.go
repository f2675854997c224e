package matcher

import (
	"strings"

	"github.com/caddyserver/caddy"
)

// ParseConditions parses the current dispenser block for if and if_op conditions
// and returns them as a single, concatenated expression string usable for
// govaluate.NewEvaluableExpression() and similar. Other block keys are skipped
// so plugins can mix conditions with their own settings
func ParseConditions(c *caddy.Controller) (string, error) {
	var conds []string
	var op = "&&"
	var disp = c.Dispenser // get a copy of the dispenser so the caller can parse the block again

	for disp.NextBlock() {
		switch disp.Val() {
		case "if":
			args := disp.RemainingArgs()
			if len(args) == 0 {
				return "", disp.ArgErr()
			}
			conds = append(conds, strings.Join(args, " "))

		case "if_op":
			if !disp.NextArg() {
				return "", disp.ArgErr()
			}

			switch disp.Val() {
			case "and", "&&":
				op = "&&"
			case "or", "||":
				op = "||"
			default:
				return "", disp.Errf("unknown if_op %q", disp.Val())
			}
		}
	}

	for i, cond := range conds {
		conds[i] = "(" + cond + ")"
	}

	return strings.Join(conds, " "+op+" "), nil
}
