package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

type searchFlags struct {
	userID     string
	searchType string
	limit      int
	threshold  float64
	documentID int64
	agentID    int64
	category   string
	docIDs     []int64
	maxType    string
	maxValue   float64
	augment    bool
	chatType   string
	contextID  string
	jsonOutput bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	f := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a single ranked search and print the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			ctx := context.Background()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := f.options()
			var resp *domain.SearchResponse
			switch {
			case f.documentID > 0:
				resp, err = a.search.SearchWithinDocument(ctx, f.documentID, query, f.userID, opts)
			case f.agentID > 0:
				resp, err = a.search.SearchAgentDocuments(ctx, f.agentID, query, f.userID, opts)
			default:
				resp, err = a.search.Search(ctx, query, f.userID, opts)
			}
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if f.jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			fmt.Fprintln(os.Stdout, renderResponse(resp))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.userID, "user", "u", "", "owner of the searched documents (required)")
	flags.StringVarP(&f.searchType, "type", "t", string(domain.SearchTypeHybrid), "search type (hybrid, keyword, semantic)")
	flags.IntVarP(&f.limit, "limit", "n", 0, "maximum results")
	flags.Float64Var(&f.threshold, "threshold", 0, "minimum fused score")
	flags.Int64Var(&f.documentID, "document", 0, "search within one document")
	flags.Int64Var(&f.agentID, "agent", 0, "search an agent's documents")
	flags.StringVar(&f.category, "category", "", "category filter (case-insensitive)")
	flags.Int64SliceVar(&f.docIDs, "doc-ids", nil, "restrict to these document ids")
	flags.StringVar(&f.maxType, "max-type", "", "selection policy (number, percentage)")
	flags.Float64Var(&f.maxValue, "max-value", 0, "selection policy value")
	flags.BoolVar(&f.augment, "augment", false, "rewrite the query from conversation history")
	flags.StringVar(&f.chatType, "chat-type", string(domain.ChatTypeGeneral), "conversation surface for augmentation")
	flags.StringVar(&f.contextID, "context", "", "conversation context id for augmentation")
	flags.BoolVar(&f.jsonOutput, "json", false, "print the raw JSON response")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func (f *searchFlags) options() domain.SearchOptions {
	opts := domain.SearchOptions{
		SearchType:              domain.SearchType(f.searchType),
		Limit:                   f.limit,
		Threshold:               f.threshold,
		SpecificDocumentIDs:     f.docIDs,
		CategoryFilter:          f.category,
		ChunkMaxType:            domain.ChunkMaxType(f.maxType),
		ChunkMaxValue:           f.maxValue,
		EnableQueryAugmentation: f.augment,
		ChatType:                domain.ChatType(f.chatType),
		ContextID:               f.contextID,
	}
	if f.agentID > 0 {
		id := f.agentID
		opts.AgentID = &id
	}
	return opts
}
