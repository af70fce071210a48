package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"scholarbrief/internal/model"
	"scholarbrief/internal/store"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored research sessions",
	Long: `List every stored session with its source, chunk and claim counts.

Example:
  scholarbrief sessions
  scholarbrief sessions --store-dir ./data/sessions`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)

	sessionsCmd.Flags().StringVar(&storeDir, "store-dir", "", "session store directory (default: ./data/sessions)")
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if storeDir != "" {
		cfg.Store.Dir = storeDir
	}

	st, err := store.NewFileStore(cfg.Store.Dir)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	ids, err := st.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}
	sort.Strings(ids)

	for _, id := range ids {
		session, err := st.Get(id)
		if err != nil || session == nil {
			fmt.Printf("%s  (unreadable)\n", id)
			continue
		}

		consensus, disagreement, uncertain := model.CountByType(session.Claims)
		fmt.Printf("%s  sources=%d chunks=%d claims=%d (consensus=%d disagreement=%d uncertain=%d)\n",
			id, len(session.Sources), len(session.Chunks), len(session.Claims),
			consensus, disagreement, uncertain)
		if session.Query != "" {
			fmt.Printf("    query: %s\n", session.Query)
		}
	}

	return nil
}
