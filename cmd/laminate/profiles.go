package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/laminate-dev/laminate/internal/hotkey"
	"github.com/laminate-dev/laminate/internal/output"
	"github.com/laminate-dev/laminate/internal/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage settings profiles",
}

var listFormat string

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		formatter, err := output.New(listFormat, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		listing := &output.Listing{}
		for _, p := range a.Manager.Profiles() {
			listing.Profiles = append(listing.Profiles, output.Row{
				ID:        p.ID(),
				Name:      p.Name(),
				Enabled:   p.Enabled(),
				Ephemeral: p.Ephemeral(),
				Hotkey:    p.Hotkey(),
				URL:       p.URL(),
				Settings:  p.Len(),
			})
		}
		return formatter.Format(listing)
	},
}

var createOpts struct {
	Name        string
	Description string
	Hotkey      string
	URL         string
}

var profilesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new profile",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if createOpts.Name == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Profile name").
						Value(&createOpts.Name).
						Validate(func(s string) error {
							if s == "" {
								return fmt.Errorf("a name is required")
							}
							return nil
						}),
					huh.NewInput().
						Title("Description").
						Value(&createOpts.Description),
					huh.NewInput().
						Title("Hotkey (optional, e.g. ctrl+shift+p)").
						Value(&createOpts.Hotkey).
						Validate(func(s string) error {
							if s == "" || hotkey.Valid(s) {
								return nil
							}
							return hotkey.ErrInvalidCombo
						}),
					huh.NewInput().
						Title("Remote update URL (optional)").
						Value(&createOpts.URL),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
		}
		if createOpts.Hotkey != "" {
			normalized, err := hotkey.Normalize(createOpts.Hotkey)
			if err != nil {
				return fmt.Errorf("%w: %q", hotkey.ErrInvalidCombo, createOpts.Hotkey)
			}
			createOpts.Hotkey = normalized
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Manager.CreateProfile(profile.Metadata{
			Name:        createOpts.Name,
			Description: createOpts.Description,
			Hotkey:      createOpts.Hotkey,
			URL:         createOpts.URL,
			ShowToggle:  true,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created profile %d (%s)\n", p.ID(), p.Name())
		return nil
	},
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile and purge its settings",
	Args:  cobra.ExactArgs(1),
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

		if err := a.Manager.DeleteProfile(id); err != nil {
			return err
		}
		fmt.Printf("deleted profile %d\n", id)
		return a.Provider.Err()
	},
}

func init() {
	profilesListCmd.Flags().StringVar(&listFormat, "format", "table", "output format: table, json or yaml")
	profilesCreateCmd.Flags().StringVar(&createOpts.Name, "name", "", "profile name (omit for interactive prompt)")
	profilesCreateCmd.Flags().StringVar(&createOpts.Description, "description", "", "profile description")
	profilesCreateCmd.Flags().StringVar(&createOpts.Hotkey, "hotkey", "", "toggle hotkey, e.g. ctrl+shift+p")
	profilesCreateCmd.Flags().StringVar(&createOpts.URL, "url", "", "remote update URL")

	profilesCmd.AddCommand(profilesListCmd, profilesCreateCmd, profilesDeleteCmd)
	rootCmd.AddCommand(profilesCmd)
}
