package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	researchSession string
	topK            int
	maxPerSource    int
	expandQueries   bool
	outJSON         string
	llmProvider     string
	llmModel        string
	noLLM           bool
	researchTimeout time.Duration
	hitsOnly        bool
)

// researchCmd represents the research command
var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Run the full research pipeline over an ingested session",
	Long: `Research answers a question from a previously ingested session:
- Retrieve the most relevant chunks (reranked, source-diversified)
- Extract atomic claims with the LLM and deduplicate them
- Classify claims as consensus, disagreement or uncertain
- Synthesize a structured brief with confidence and limitations

Without an LLM provider the pipeline degrades to rule-based
classification and synthesis instead of failing.

Example:
  scholarbrief research "does creatine improve cognition" --session my-review
  scholarbrief research "..." --session s1 --top-k 20 --json brief.json
  scholarbrief research "..." --session s1 --llm-provider ollama --llm-model llama3.1`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().StringVar(&researchSession, "session", "", "session ID (required)")
	_ = researchCmd.MarkFlagRequired("session")

	// Retrieval flags
	researchCmd.Flags().IntVar(&topK, "top-k", 10, "number of chunks to retrieve")
	researchCmd.Flags().IntVar(&maxPerSource, "max-per-source", 4, "max chunks per source after diversification")
	researchCmd.Flags().BoolVar(&expandQueries, "expand", false, "retrieve with query expansion variants")
	researchCmd.Flags().BoolVar(&hitsOnly, "hits-only", false, "stop after retrieval and print the hits")

	// Output flags
	researchCmd.Flags().StringVar(&outJSON, "json", "", "write the brief JSON to this path (default: stdout)")

	// LLM flags
	researchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	researchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
	researchCmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip the LLM; use rule-based extraction fallbacks only")

	researchCmd.Flags().DurationVar(&researchTimeout, "timeout", 5*time.Minute, "overall pipeline timeout")
	researchCmd.Flags().StringVar(&storeDir, "store-dir", "", "session store directory (default: ./data/sessions)")
	researchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the embedding cache")
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), researchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Retrieval.TopK = topK
	cfg.Retrieval.MaxPerSource = maxPerSource
	cfg.Retrieval.ExpandQueries = expandQueries
	if noCache {
		cfg.Cache.Enabled = false
	}
	if storeDir != "" {
		cfg.Store.Dir = storeDir
	}

	if noLLM {
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

	if verbose {
		fmt.Fprintf(os.Stderr, "Session: %s\n", researchSession)
		fmt.Fprintf(os.Stderr, "Query: %s\n\n", query)
		fmt.Fprintf(os.Stderr, "⚙️  Retrieving relevant chunks...\n")
	}

	hits, err := p.Retrieve(ctx, researchSession, query, topK, nil)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Retrieved %d chunks\n", len(hits))
	}

	if hitsOnly {
		return writeJSON(hits, outJSON)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Extracting and classifying claims...\n")
	}
	claims, err := p.ExtractAndClassify(ctx, researchSession, query)
	if err != nil {
		return fmt.Errorf("claim extraction failed: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d claims after deduplication\n", len(claims))
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Synthesizing research brief...\n")
	}
	brief, err := p.Synthesize(ctx, researchSession, query)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Brief: %d consensus, %d disagreements, %d open questions (confidence %s/%d)\n\n",
			len(brief.Consensus), len(brief.Disagreements), len(brief.OpenQuestions),
			brief.ConfidenceLevel, brief.ConfidenceScore)
	}

	return writeJSON(brief, outJSON)
}

// writeJSON renders v as indented JSON to the path, or stdout when the
// path is empty.
func writeJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	if path == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	}
	return nil
}
