package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	batchSession string
	batchQuery   string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Ingest many inputs from a file in parallel",
	Long: `Batch reads inputs (file paths or URLs, one per line) and ingests
them into a session concurrently. Lines starting with # are skipped.

When --query is given, the full research pipeline runs after ingestion
and the brief is printed.

Example:
  scholarbrief batch sources.txt
  scholarbrief batch sources.txt --concurrency 8 --session my-review
  scholarbrief batch sources.txt --query "is intermittent fasting effective"`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchSession, "session", "", "session ID (default: a new ID)")
	batchCmd.Flags().StringVar(&batchQuery, "query", "", "run the full research pipeline with this query after ingestion")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	batchCmd.Flags().DurationVar(&httpTimeout, "fetch-timeout", 30*time.Second, "HTTP fetch timeout per URL")
	batchCmd.Flags().StringVar(&userAgent, "ua", "ScholarBrief/0.1 (research assistant)", "HTTP User-Agent")
	batchCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read per URL")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the embedding cache")
	batchCmd.Flags().StringVar(&storeDir, "store-dir", "", "session store directory (default: ./data/sessions)")

	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
	batchCmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip the LLM; use rule-based extraction fallbacks only")
	batchCmd.Flags().StringVar(&outJSON, "json", "", "write the brief JSON to this path (default: stdout)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	inputs, err := readInputs(file)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no inputs found in %s", file)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.HTTP.Timeout = httpTimeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.Concurrency.IngestWorkers = concurrency
	if noCache {
		cfg.Cache.Enabled = false
	}
	if storeDir != "" {
		cfg.Store.Dir = storeDir
	}

	runResearchStage := batchQuery != ""
	if !runResearchStage || noLLM {
		cfg.LLM.Provider = ""
	} else {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
		if llmProvider == "openai" && os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	if batchSession == "" {
		batchSession = uuid.NewString()
	}

	fmt.Fprintf(os.Stderr, "⚙️  Ingesting %d inputs with %d workers (session %s)...\n",
		len(inputs), concurrency, batchSession)

	result, err := p.IngestConcurrent(ctx, batchSession, inputs, batchQuery, concurrency)
	if err != nil {
		return fmt.Errorf("batch ingest failed: %w", err)
	}

	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "✗ %s\n", e)
	}
	for _, src := range result.Sources {
		fmt.Fprintf(os.Stderr, "✓ %s (%s)\n", src.Title, src.Type)
	}
	fmt.Fprintf(os.Stderr, "\nIngested %d/%d inputs, %d chunks\n",
		len(result.Sources), len(inputs), result.TotalChunks)

	if len(result.Sources) == 0 {
		return fmt.Errorf("all %d inputs failed", len(inputs))
	}

	if !runResearchStage {
		return writeJSON(result, outJSON)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Running research pipeline...\n")

	if _, err := p.Retrieve(ctx, batchSession, batchQuery, cfg.Retrieval.TopK, nil); err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}
	if _, err := p.ExtractAndClassify(ctx, batchSession, batchQuery); err != nil {
		return fmt.Errorf("claim extraction failed: %w", err)
	}
	brief, err := p.Synthesize(ctx, batchSession, batchQuery)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}

	return writeJSON(brief, outJSON)
}

// readInputs loads inputs from the file, one per line, skipping blanks
// and # comments.
func readInputs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var inputs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}

	return inputs, nil
}
