package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ftdconf/ftdconf/pkg/cli"
	"github.com/ftdconf/ftdconf/pkg/fdm"
	"github.com/ftdconf/ftdconf/pkg/swagger"
)

var specOperationsFilter string

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Inspect the device's API specification",
}

var specOperationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "List the operations the device supports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *fdm.Session, index *swagger.SpecIndex) error {
			ids := make([]string, 0, len(index.Operations))
			for id := range index.Operations {
				if specOperationsFilter != "" && !strings.Contains(strings.ToLower(id), strings.ToLower(specOperationsFilter)) {
					continue
				}
				ids = append(ids, id)
			}
			sort.Strings(ids)

			t := cli.NewTable("OPERATION", "METHOD", "URL", "MODEL")
			for _, id := range ids {
				op := index.Operations[id]
				t.Row(id, op.Method, op.URL, op.ModelName)
			}
			t.Flush()
			if len(ids) == 0 {
				fmt.Println("No operations match.")
			}
			return nil
		})
	},
}

var specModelCmd = &cobra.Command{
	Use:   "model <name>",
	Short: "Show one model's schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *fdm.Session, index *swagger.SpecIndex) error {
			model := index.Model(args[0])
			if model == nil {
				return fmt.Errorf("model %s not found in the device specification", args[0])
			}
			return printJSON(model)
		})
	},
}

func init() {
	specOperationsCmd.Flags().StringVar(&specOperationsFilter, "filter", "", "Only operations whose ID contains this substring")
	specCmd.AddCommand(specOperationsCmd)
	specCmd.AddCommand(specModelCmd)
}
