package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftdconf/ftdconf/pkg/cli"
	"github.com/ftdconf/ftdconf/pkg/util"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the device session tokens",
	Long: `Revoke the access and refresh tokens on the device and drop the
persisted session state, so the next invocation logs in from scratch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := connect(ctx)
		if err != nil {
			return err
		}
		if err := s.Logout(ctx); err != nil {
			util.Warnf("Token revocation failed: %v", err)
		}

		userSettings.ClearHost(hostname)
		if err := userSettings.Save(); err != nil {
			return fmt.Errorf("clearing persisted session state: %w", err)
		}
		fmt.Println(cli.Green("logged out"))
		return nil
	},
}
