package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	sessionID   string
	ingestQuery string
	httpTimeout time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	storeDir    string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-url>...",
	Short: "Ingest documents and URLs into a research session",
	Long: `Ingest converts each input into chunked, embedded text and indexes
it in a session corpus:
- Local text and markdown files are read directly
- URLs are fetched (honoring robots.txt) and stripped to visible text
- Content is split along sections and sentences, embedded, and indexed

Rich formats (PDF, DOCX) should be converted to text or markdown first.

Example:
  scholarbrief ingest paper1.md paper2.txt
  scholarbrief ingest https://example.org/study --session my-review
  scholarbrief ingest notes.md --query "effects of sleep on memory"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&sessionID, "session", "", "session ID (default: a new ID)")
	ingestCmd.Flags().StringVar(&ingestQuery, "query", "", "research question to record on the session")
	ingestCmd.Flags().StringVar(&storeDir, "store-dir", "", "session store directory (default: ./data/sessions)")

	// HTTP flags
	ingestCmd.Flags().DurationVar(&httpTimeout, "timeout", 30*time.Second, "HTTP fetch timeout per URL")
	ingestCmd.Flags().StringVar(&userAgent, "ua", "ScholarBrief/0.1 (research assistant)", "HTTP User-Agent")
	ingestCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read per URL")
	ingestCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the embedding cache")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.HTTP.Timeout = httpTimeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	if noCache {
		cfg.Cache.Enabled = false
	}
	if storeDir != "" {
		cfg.Store.Dir = storeDir
	}
	// Ingestion never calls the completion API
	cfg.LLM.Provider = ""

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Session: %s\n", sessionID)
		fmt.Fprintf(os.Stderr, "Inputs: %d\n\n", len(args))
	}

	result, err := p.Ingest(ctx, sessionID, args, ingestQuery)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "✗ %s\n", e)
	}
	if verbose {
		for _, src := range result.Sources {
			fmt.Fprintf(os.Stderr, "✓ %s (%s)\n", src.Title, src.Type)
		}
		fmt.Fprintf(os.Stderr, "\n")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))

	if len(result.Errors) > 0 && len(result.Sources) == 0 {
		return fmt.Errorf("all %d inputs failed", len(args))
	}
	return nil
}
