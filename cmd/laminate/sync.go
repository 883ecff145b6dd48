package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var syncParallel int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull remote updates for every profile with an update URL",
	Long: `Sync runs a remote-update check for each profile that has an update URL
configured and is not paused. Profiles are checked concurrently, but at most
one check runs per profile at a time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		type result struct {
			id      int
			name    string
			updated bool
		}

		var mu sync.Mutex
		var results []result

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(syncParallel)

		for _, p := range a.Manager.Profiles() {
			if p.URL() == "" || p.PauseUpdates() {
				continue
			}
			g.Go(func() error {
				updated := p.CheckUpdate(ctx)
				mu.Lock()
				results = append(results, result{id: p.ID(), name: p.Name(), updated: updated})
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("no profiles have an update URL configured")
			return nil
		}
		for _, r := range results {
			status := "unchanged or failed"
			if r.updated {
				status = "updated"
			}
			fmt.Printf("%3d  %-24s %s\n", r.id, r.name, status)
		}
		return a.Provider.Err()
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncParallel, "parallel", 4, "maximum concurrent update checks")
	rootCmd.AddCommand(syncCmd)
}
