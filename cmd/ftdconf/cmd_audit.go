package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ftdconf/ftdconf/pkg/audit"
	"github.com/ftdconf/ftdconf/pkg/cli"
)

var (
	auditDevice    string
	auditOperation string
	auditFailures  bool
	auditLimit     int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show past configuration operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := audit.NewFileLogger(audit.DefaultLogPath())
		if err != nil {
			return err
		}
		defer logger.Close()

		events, err := logger.Query(audit.Filter{
			Device:      auditDevice,
			Operation:   auditOperation,
			FailureOnly: auditFailures,
			Limit:       auditLimit,
		})
		if err != nil {
			return err
		}

		t := cli.NewTable("TIME", "DEVICE", "OPERATION", "RESULT", "CHANGED")
		for _, e := range events {
			result := cli.Green("ok")
			if !e.Success {
				result = cli.Red("failed")
			}
			if e.CheckMode {
				result += " (check)"
			}
			t.Row(e.Timestamp.Format(time.RFC3339), e.Device, e.Operation, result, fmt.Sprintf("%t", e.Changed))
		}
		t.Flush()
		if len(events) == 0 {
			fmt.Println("No audit events match.")
		}
		return nil
	},
}

func init() {
	flags := auditCmd.Flags()
	flags.StringVar(&auditDevice, "device", "", "Only events for this device")
	flags.StringVar(&auditOperation, "operation", "", "Only events for this operation")
	flags.BoolVar(&auditFailures, "failures", false, "Only failed operations")
	flags.IntVar(&auditLimit, "limit", 50, "Maximum number of events (newest kept)")
}
