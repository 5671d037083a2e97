package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ftdconf/ftdconf/pkg/cli"
	"github.com/ftdconf/ftdconf/pkg/fdm"
	"github.com/ftdconf/ftdconf/pkg/module"
	"github.com/ftdconf/ftdconf/pkg/swagger"
)

var (
	executeData       string
	executePathParams []string
	executeQuery      []string
	executeFilters    []string
	executeRegisterAs string
)

var executeCmd = &cobra.Command{
	Use:   "execute <operationId>",
	Short: "Execute one API operation by its operation ID",
	Long: `Execute one operation from the device's API specification.

Add/edit/delete/upsert operations are applied idempotently: the result
reports whether the device actually changed. Find-all operations combined
with --filter return only matching items.

Examples:
  ftdconf -H 10.0.0.1 execute upsertNetworkObject \
      --data '{"name":"web","subType":"HOST","type":"networkobject","value":"10.1.1.10"}'
  ftdconf -H 10.0.0.1 execute getNetworkObject --path objId=abc-123
  ftdconf -H 10.0.0.1 execute getNetworkObjectList --filter subType=HOST --register-as hosts
  ftdconf -H 10.0.0.1 execute deleteNetworkObject --path objId=abc-123 -C`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		operation := args[0]

		data, err := parseData(executeData)
		if err != nil {
			return err
		}
		pathParams, err := parseKV(executePathParams)
		if err != nil {
			return err
		}
		queryParams, err := parseKV(executeQuery)
		if err != nil {
			return err
		}
		filters, err := parseKV(executeFilters)
		if err != nil {
			return err
		}

		return withSession(func(ctx context.Context, s *fdm.Session, index *swagger.SpecIndex) error {
			started := time.Now()
			res := module.Run(ctx, s, index, &module.RunParams{
				Operation:   operation,
				Data:        data,
				PathParams:  pathParams,
				QueryParams: queryParams,
				Filters:     filters,
				RegisterAs:  executeRegisterAs,
				CheckMode:   checkMode,
			})
			recordAudit(operation, res.Changed, !res.Failed, res.Msg, started)

			if res.Failed {
				return fmt.Errorf("%s", res.Msg)
			}
			printOutcome(res)
			return printJSON(map[string]interface{}{
				"changed":  res.Changed,
				"response": res.Response,
				"facts":    res.Facts,
			})
		})
	},
}

func printOutcome(res *module.RunResult) {
	switch {
	case res.Msg != "":
		fmt.Println(cli.Yellow(res.Msg))
	case res.Changed:
		fmt.Println(cli.Green("changed"))
	default:
		fmt.Println(cli.Green("ok"))
	}
}

func init() {
	flags := executeCmd.Flags()
	flags.StringVar(&executeData, "data", "", "Request body: inline JSON/YAML or @file")
	flags.StringArrayVar(&executePathParams, "path", nil, "Path parameter key=value (repeatable)")
	flags.StringArrayVar(&executeQuery, "query", nil, "Query parameter key=value (repeatable)")
	flags.StringArrayVar(&executeFilters, "filter", nil, "Client-side filter key=value for find-all operations (repeatable)")
	flags.StringVar(&executeRegisterAs, "register-as", "", "Fact name for the response")
}
