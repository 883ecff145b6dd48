package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/laminate-dev/laminate/internal/profile"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the profile list for changes and report the active set",
	Long: `Watch follows the profiles file on disk, reloading the list whenever it
changes and printing the profiles that are currently enabled and matching.
Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.Manager.SetOnUpdate(func(active []*profile.Profile) {
			fmt.Print("active:")
			for _, p := range active {
				fmt.Printf(" %d(%s)", p.ID(), p.Name())
			}
			fmt.Println()
		})
		a.Manager.UpdateSoon()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := a.Manager.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
