package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thecodingpenguins/extractify/internal/api"
)

func newCrawlCmd() *cobra.Command {
	var (
		maxPages int
		maxDepth int
		keywords []string
	)

	cmd := &cobra.Command{
		Use:   "crawl <domain>",
		Short: "Crawls one website and saves its pages",
		Long: `Runs a bounded breadth-first crawl of the given domain, staying on the
same host and honoring robots.txt, and rewrites the pages store with the
result. Interrupting the crawl keeps the pages collected so far.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawlCommand(cmd, args[0], maxPages, maxDepth, keywords)
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page budget (0 uses the configured default)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", -1, "link depth bound (-1 uses the configured default)")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "keywords guiding link expansion and extraction")

	return cmd
}

func runCrawlCommand(cmd *cobra.Command, domain string, maxPages, maxDepth int, keywords []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	params, err := buildCrawlParams(appInstance, domain, maxPages, maxDepth, keywords)
	if err != nil {
		return err
	}

	summary, err := appInstance.service.Crawl(cmd.Context(), params)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}
	if err != nil {
		appInstance.logger.Warn("crawl interrupted, partial pages saved", zap.Error(err))
	}

	return printJSON(cmd, summary)
}

func buildCrawlParams(appInstance *app, domain string, maxPages, maxDepth int, keywords []string) (api.CrawlParams, error) {
	u, err := api.ValidateURL(domain)
	if err != nil {
		return api.CrawlParams{}, err
	}
	cleaned, err := api.SanitizeKeywords(keywords)
	if err != nil {
		return api.CrawlParams{}, err
	}
	pages, err := api.ValidateMaxPages(maxPages, appInstance.cfg.Crawler.MaxPagesDefault)
	if err != nil {
		return api.CrawlParams{}, err
	}
	var depthPtr *int
	if maxDepth >= 0 {
		depthPtr = &maxDepth
	}
	depth, err := api.ValidateMaxDepth(depthPtr, appInstance.cfg.Crawler.MaxDepthDefault)
	if err != nil {
		return api.CrawlParams{}, err
	}
	return api.CrawlParams{
		URL:      u,
		Keywords: cleaned,
		MaxPages: pages,
		MaxDepth: depth,
	}, nil
}

func printJSON(cmd *cobra.Command, payload any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
