package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ftdconf/ftdconf/pkg/cli"
	"github.com/ftdconf/ftdconf/pkg/fdm"
	"github.com/ftdconf/ftdconf/pkg/playbook"
	"github.com/ftdconf/ftdconf/pkg/swagger"
)

var applyCmd = &cobra.Command{
	Use:   "apply <playbook.yaml>",
	Short: "Apply an ordered list of operations from a YAML playbook",
	Long: `Apply a playbook: an ordered list of operations executed over one
session. Execution stops at the first failed task. With -C every task is
validated and read but nothing is mutated.

Playbook format:

  tasks:
    - name: web server object
      operation: upsertNetworkObject
      data:
        name: web
        subType: HOST
        type: networkobject
        value: 10.1.1.10
    - name: list hosts
      operation: getNetworkObjectList
      filters:
        subType: HOST
      register_as: hosts`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pb, err := playbook.Load(args[0])
		if err != nil {
			return err
		}

		return withSession(func(ctx context.Context, s *fdm.Session, index *swagger.SpecIndex) error {
			started := time.Now()
			results, summary := pb.Run(ctx, s, index, checkMode)

			for _, tr := range results {
				recordAudit(tr.Task, tr.Result.Changed, !tr.Result.Failed, tr.Result.Msg, started)
				switch {
				case tr.Result.Failed:
					fmt.Printf("%s  %s\n    %s\n", cli.Red("failed "), tr.Task, tr.Result.Msg)
				case tr.Result.Changed:
					fmt.Printf("%s  %s\n", cli.Yellow("changed"), tr.Task)
				default:
					fmt.Printf("%s  %s\n", cli.Green("ok     "), tr.Task)
				}
			}

			fmt.Printf("\n%s ok=%d changed=%d failed=%d\n",
				cli.Bold("Summary:"), summary.OK, summary.Changed, summary.Failed)
			if summary.Failed > 0 {
				return fmt.Errorf("playbook failed after %d of %d tasks", len(results), len(pb.Tasks))
			}
			return nil
		})
	},
}
