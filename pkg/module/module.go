// Package module is the dispatcher façade over the configuration engine.
// It translates user parameters into an engine call and folds the outcome,
// including every error kind, into a single flat result suitable for
// automation: changed, failed, message, response, facts.
package module

import (
	"context"
	"errors"
	"fmt"

	"github.com/ftdconf/ftdconf/pkg/resource"
	"github.com/ftdconf/ftdconf/pkg/swagger"
	"github.com/ftdconf/ftdconf/pkg/util"
)

// RunParams is one requested operation.
type RunParams struct {
	Operation   string
	Data        map[string]interface{}
	PathParams  map[string]interface{}
	QueryParams map[string]interface{}
	Filters     map[string]interface{}

	// RegisterAs overrides the generated fact name for the response.
	RegisterAs string

	CheckMode bool
}

// RunResult reports one executed operation. Failed results never report
// Changed.
type RunResult struct {
	Changed  bool
	Failed   bool
	Msg      string
	Response map[string]interface{}
	Facts    map[string]interface{}
}

// Run executes one operation and classifies its outcome. Errors are folded
// into the result; Run itself never returns one.
func Run(ctx context.Context, client resource.Client, index *swagger.SpecIndex, p *RunParams) *RunResult {
	engine := resource.NewEngine(client, index)
	engine.SetCheckMode(p.CheckMode)

	res, err := engine.Execute(ctx, p.Operation, &resource.Params{
		Data:        p.Data,
		PathParams:  p.PathParams,
		QueryParams: p.QueryParams,
		Filters:     p.Filters,
	})
	if err != nil {
		return failureResult(p.Operation, err)
	}

	return &RunResult{
		Changed:  res.Changed,
		Response: res.Response,
		Facts:    buildFacts(p.RegisterAs, res.Response),
	}
}

func failureResult(operation string, err error) *RunResult {
	if errors.Is(err, util.ErrCheckMode) {
		// Not a failure: the mutation was suppressed by check mode.
		return &RunResult{
			Changed: false,
			Msg:     fmt.Sprintf("Check mode enabled, %s operation was not executed", operation),
		}
	}

	var (
		confErr    *util.ConfigurationError
		serverErr  *util.ServerError
		invalidErr *util.InvalidOperationError
	)
	result := &RunResult{Failed: true}
	switch {
	case errors.As(err, &confErr):
		result.Msg = fmt.Sprintf("Failed to execute %s operation because of the configuration error: %s",
			operation, confErr.Msg)
	case errors.As(err, &serverErr):
		result.Msg = fmt.Sprintf("Server returned an error trying to execute %s operation. Status code: %d. Server response: %v",
			operation, serverErr.StatusCode, serverErr.Response)
	case errors.As(err, &invalidErr) && invalidErr.Reason == "":
		result.Msg = fmt.Sprintf("Invalid operation name provided: %s", operation)
	default:
		result.Msg = err.Error()
	}
	util.WithOperation(operation).Error(result.Msg)
	return result
}

// buildFacts derives the fact map from a response. A named, typed object
// registers under "<type>_<sanitized name>" unless the caller chose a name;
// list responses register only under an explicit name.
func buildFacts(registerAs string, response map[string]interface{}) map[string]interface{} {
	if len(response) == 0 {
		return nil
	}
	if registerAs != "" {
		if items, ok := response["items"]; ok {
			return map[string]interface{}{registerAs: items}
		}
		return map[string]interface{}{registerAs: response}
	}

	name, _ := response["name"].(string)
	objType, _ := response["type"].(string)
	if name == "" || objType == "" {
		return nil
	}
	key := objType + "_" + util.SanitizeFactName(name)
	return map[string]interface{}{key: response}
}
