package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shutterbot/shutterbot/internal/config"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Ask a question and get ranked site content or a clarifying question",
	Long: `Ask a question the way a site visitor would.

Examples:
  shutterbot ask "what is depth of field"
  shutterbot ask "courses?"
  shutterbot ask --previous "courses?" "the beginner one"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		session, _ := cmd.Flags().GetString("session")
		previous, _ := cmd.Flags().GetString("previous")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{"query": query}
		if session != "" {
			req["session_id"] = session
		}
		if previous != "" {
			req["previous_query"] = previous
		}

		resp, err := client.post(cmd.Context(), "/v1/ask", req)
		if err != nil {
			return err
		}

		var result struct {
			Intent        string `json:"intent"`
			Clarification *struct {
				Question string   `json:"question"`
				Options  []string `json:"options"`
			} `json:"clarification"`
			Results []struct {
				Title string `json:"title"`
				URL   string `json:"url"`
				Kind  string `json:"kind"`
				Score int    `json:"score"`
			} `json:"results"`
			Unresolved bool `json:"unresolved"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if result.Unresolved {
			printWarning("Could not match your reply to an option; treated it as a new question.")
		}

		if result.Clarification != nil {
			fmt.Println(result.Clarification.Question)
			for i, opt := range result.Clarification.Options {
				fmt.Printf("  %d. %s\n", i+1, opt)
			}
			return nil
		}

		if len(result.Results) == 0 {
			fmt.Println("No matching content found.")
			return nil
		}

		for i, r := range result.Results {
			fmt.Printf("%s %s\n", colorize(colorBold, fmt.Sprintf("%d.", i+1)), r.Title)
			fmt.Printf("   %s  %s\n", colorize(colorCyan, r.Kind), r.URL)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().String("session", "", "session identifier for the interaction log")
	askCmd.Flags().String("previous", "", "previous query when replying to a clarification")
}

// --- ingest ---

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Queue content for ingestion into the catalog",
	Long: `Queue content for ingestion into the catalog.

Examples:
  shutterbot ingest --csv ./export.csv
  shutterbot ingest --url https://example.com/events/bluebell
  shutterbot ingest --pdf ./brochure.pdf --target-url https://example.com/workshops/lakes --title "Lakes Workshop"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath, _ := cmd.Flags().GetString("csv")
		pageURL, _ := cmd.Flags().GetString("url")
		pdfPath, _ := cmd.Flags().GetString("pdf")
		title, _ := cmd.Flags().GetString("title")
		targetURL, _ := cmd.Flags().GetString("target-url")

		if csvPath == "" && pageURL == "" && pdfPath == "" {
			return fmt.Errorf("one of --csv, --url, or --pdf is required")
		}

		req := map[string]any{}
		switch {
		case csvPath != "":
			data, err := os.ReadFile(csvPath)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			req["type"] = "csv"
			req["csv"] = string(data)
		case pageURL != "":
			req["type"] = "url"
			req["url"] = pageURL
		case pdfPath != "":
			if targetURL == "" {
				return fmt.Errorf("--target-url is required with --pdf")
			}
			req["type"] = "pdf"
			req["path"] = pdfPath
			req["title"] = title
			req["target_url"] = targetURL
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/ingest", req)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Queued job %s", result["id"])
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("csv", "", "CSV export file to ingest")
	ingestCmd.Flags().String("url", "", "page URL to fetch and scrape for structured data")
	ingestCmd.Flags().String("pdf", "", "PDF brochure file path")
	ingestCmd.Flags().String("title", "", "title for the PDF brochure")
	ingestCmd.Flags().String("target-url", "", "page the PDF brochure describes")
}

// --- entities ---

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List ingested content entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/entities?limit=%d", limit)
		if kind != "" {
			path += "&kind=" + url.QueryEscape(kind)
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var entities []struct {
			Kind  string `json:"Kind"`
			Title string `json:"Title"`
			URL   string `json:"URL"`
		}
		if err := decodeJSON(resp, &entities); err != nil {
			return err
		}

		if len(entities) == 0 {
			fmt.Println("No entities found.")
			return nil
		}

		for _, e := range entities {
			fmt.Printf("%-8s  %s\n          %s\n", colorize(colorCyan, e.Kind), e.Title, e.URL)
		}
		return nil
	},
}

func init() {
	entitiesCmd.Flags().String("kind", "", "restrict to one kind (article, event, product, service, landing)")
	entitiesCmd.Flags().Int("limit", 20, "maximum number of entities to list")
}

// --- interactions ---

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "List recent visitor interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/interactions?limit=%d", limit))
		if err != nil {
			return err
		}

		var interactions []struct {
			ID            string `json:"ID"`
			CreatedAt     string `json:"CreatedAt"`
			Query         string `json:"Query"`
			Intent        string `json:"Intent"`
			ResultCount   int    `json:"ResultCount"`
			Clarification bool   `json:"Clarification"`
		}
		if err := decodeJSON(resp, &interactions); err != nil {
			return err
		}

		if len(interactions) == 0 {
			fmt.Println("No interactions found.")
			return nil
		}

		for _, ix := range interactions {
			query := ix.Query
			if len(query) > 80 {
				query = query[:80] + "..."
			}
			outcome := fmt.Sprintf("%d results", ix.ResultCount)
			if ix.Clarification {
				outcome = "clarified"
			}
			fmt.Printf("%s  %-22s  %-10s  %s\n",
				colorize(colorCyan, ix.ID[:8]),
				ix.Intent,
				outcome,
				query,
			)
		}
		return nil
	},
}

func init() {
	interactionsCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
