package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/canal-io/canal/entity"
)

// FilterOutcome is the completed result of applying one filter to a message.
// The filter engine never returns errors to its caller; faults show up as
// rejections with a reason.
type FilterOutcome struct {
	Rejected bool
	Reason   string

	// Message is the (possibly replaced) message to feed the next chain step.
	// Only meaningful when Rejected is false.
	Message []byte
}

// FilterEngine executes one filter config against a message. Stateless apart
// from the injected script runner.
type FilterEngine struct {
	scripts entity.ScriptRunner
}

func NewFilterEngine(config Config) *FilterEngine {
	return &FilterEngine{scripts: config.ScriptRunner}
}

// ApplyFilter evaluates the filter against the message and always returns a
// completed outcome. Any fault, including a panicking script runner or an
// unknown config variant, rejects the message (fail-closed, never fail-open).
func (e *FilterEngine) ApplyFilter(ctx context.Context, config entity.FilterConfig, message []byte) (outcome FilterOutcome) {

	defer func() {
		if r := recover(); r != nil {
			outcome = rejected(fmt.Sprintf("panic during filter execution: %v", r))
		}
	}()

	switch config := config.(type) {
	case entity.ScriptFilter:
		return e.applyScriptFilter(ctx, config, message)
	case entity.PathQueryFilter:
		return applyPathQueryFilter(config, message)
	default:
		return rejected(fmt.Sprintf("%v: filter type %T", entity.ErrUnsupportedVariant, config))
	}
}

func (e *FilterEngine) applyScriptFilter(ctx context.Context, config entity.ScriptFilter, message []byte) FilterOutcome {

	if e.scripts == nil {
		return rejected("no script runner registered")
	}

	result, err := e.scripts.Run(ctx, config.Script, message)
	if err != nil {
		return rejected(fmt.Sprintf("script execution failed: %v", err))
	}
	if result.Passed == nil {
		return rejected("script returned no pass/fail flag")
	}
	if !*result.Passed {
		return rejected("rejected by script")
	}

	if result.Message != nil {
		message = result.Message
	}
	return FilterOutcome{Message: message}
}

func applyPathQueryFilter(config entity.PathQueryFilter, message []byte) FilterOutcome {

	value := gjson.GetBytes(message, config.Path)
	if !value.Exists() {
		return rejected(fmt.Sprintf("path '%s' not found in message", config.Path))
	}

	match, err := evalCondition(value, config.Condition)
	if err != nil {
		return rejected(fmt.Sprintf("condition '%s': %v", config.Condition, err))
	}
	if !match {
		return rejected(fmt.Sprintf("condition '%s' not met for path '%s'", config.Condition, config.Path))
	}
	return FilterOutcome{Message: message}
}

// evalCondition evaluates a condition expression of the form "<op> <operand>"
// (or the single word "exists") against a resolved JSON value.
func evalCondition(value gjson.Result, condition string) (bool, error) {

	fields := strings.SplitN(strings.TrimSpace(condition), " ", 2)
	op := fields[0]

	if op == "exists" {
		return true, nil
	}
	if len(fields) < 2 {
		return false, fmt.Errorf("operator '%s' requires an operand", op)
	}
	operand := strings.TrimSpace(fields[1])

	switch op {
	case "==":
		return value.String() == operand, nil
	case "!=":
		return value.String() != operand, nil
	case "contains":
		return strings.Contains(value.String(), operand), nil
	case "prefix":
		return strings.HasPrefix(value.String(), operand), nil
	case "suffix":
		return strings.HasSuffix(value.String(), operand), nil
	case ">", ">=", "<", "<=":
		threshold, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return false, fmt.Errorf("operand '%s' is not numeric", operand)
		}
		return compareNumeric(op, value.Float(), threshold), nil
	default:
		return false, fmt.Errorf("unknown operator '%s'", op)
	}
}

func compareNumeric(op string, value, threshold float64) bool {
	switch op {
	case ">":
		return value > threshold
	case ">=":
		return value >= threshold
	case "<":
		return value < threshold
	default:
		return value <= threshold
	}
}

func rejected(reason string) FilterOutcome {
	return FilterOutcome{Rejected: true, Reason: reason}
}
