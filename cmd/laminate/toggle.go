package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <id> [on|off]",
	Short: "Enable, disable or flip a profile",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid profile id %q", args[0])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := requireProfile(a, id)
		if err != nil {
			return err
		}

		if len(args) == 2 {
			switch args[1] {
			case "on":
				p.SetEnabled(true)
			case "off":
				p.SetEnabled(false)
			default:
				return fmt.Errorf("expected on or off, got %q", args[1])
			}
		} else {
			p.Toggle()
		}

		state := "enabled"
		if !p.Enabled() {
			state = "disabled"
		}
		fmt.Printf("profile %d is now %s\n", p.ID(), state)
		return a.Provider.Err()
	},
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}
