package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsProfileID int

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a setting from a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := requireProfile(a, settingsProfileID)
		if err != nil {
			return err
		}
		if !p.Has(args[0]) {
			return fmt.Errorf("profile %d has no setting %q", p.ID(), args[0])
		}
		out, err := json.Marshal(p.Get(args[0], nil))
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting on a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := requireProfile(a, settingsProfileID)
		if err != nil {
			return err
		}
		p.Set(args[0], parseValue(args[1]))
		return a.Provider.Err()
	},
}

var unsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a setting from a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := requireProfile(a, settingsProfileID)
		if err != nil {
			return err
		}
		p.Delete(args[0])
		return a.Provider.Err()
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List a profile's settings keys",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := requireProfile(a, settingsProfileID)
		if err != nil {
			return err
		}
		for _, key := range p.Keys() {
			fmt.Println(key)
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every setting from a profile",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := requireProfile(a, settingsProfileID)
		if err != nil {
			return err
		}
		n := p.Len()
		p.Clear()
		fmt.Printf("cleared %d settings from profile %d\n", n, p.ID())
		return a.Provider.Err()
	},
}

func init() {
	for _, cmd := range []*cobra.Command{getCmd, setCmd, unsetCmd, keysCmd, clearCmd} {
		cmd.Flags().IntVarP(&settingsProfileID, "profile", "p", 0, "profile id")
		rootCmd.AddCommand(cmd)
	}
}
