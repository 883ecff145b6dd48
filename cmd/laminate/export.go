package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a profile's backup document as JSON",
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

		p, err := requireProfile(a, id)
		if err != nil {
			return err
		}

		raw, err := json.MarshalIndent(p.Backup(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding backup: %w", err)
		}
		raw = append(raw, '\n')

		if exportOutput == "" {
			_, err = os.Stdout.Write(raw)
			return err
		}
		return os.WriteFile(exportOutput, raw, 0o644)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
