package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/avolkov/towertune/pkg/logger"
)

// Fetcher downloads catalog CSV updates. It only ever runs when the user
// asks for an update; normal resolution never touches the network for
// catalog data.
type Fetcher struct {
	client *http.Client
	logger *logger.Logger
}

// NewFetcher creates a catalog fetcher with a download timeout
func NewFetcher(log *logger.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: log.Named("catalog-fetch"),
	}
}

// Update downloads a fresh catalog CSV to destPath. When directURL is set
// it is used as-is; otherwise pageURL is scraped for the newest .csv link
// (index pages list the newest revision first).
func (f *Fetcher) Update(ctx context.Context, directURL, pageURL, destPath string) error {
	csvURL := directURL
	if csvURL == "" {
		if pageURL == "" {
			return fmt.Errorf("no catalog update source configured (set catalog.update_url or catalog.update_page_url)")
		}
		found, err := f.findLatestCSV(ctx, pageURL)
		if err != nil {
			return err
		}
		csvURL = found
	}
	return f.download(ctx, csvURL, destPath)
}

// findLatestCSV scrapes an index page and returns the first .csv link,
// resolved against the page URL.
func (f *Fetcher) findLatestCSV(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", pageURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch catalog index page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("catalog index page %s returned status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse catalog index page: %w", err)
	}

	var csvLink string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.HasSuffix(strings.ToLower(strings.TrimSpace(href)), ".csv") {
			csvLink = strings.TrimSpace(href)
			return false
		}
		return true
	})
	if csvLink == "" {
		return "", fmt.Errorf("no .csv link found on %s", pageURL)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid catalog index page URL %s: %w", pageURL, err)
	}
	ref, err := url.Parse(csvLink)
	if err != nil {
		return "", fmt.Errorf("invalid catalog link %s: %w", csvLink, err)
	}
	resolved := base.ResolveReference(ref).String()

	f.logger.Info("Found catalog CSV link",
		String("page", pageURL),
		String("url", resolved),
	)
	return resolved, nil
}

// download fetches csvURL into a temp file and atomically replaces
// destPath, so a failed download never clobbers the current catalog.
func (f *Fetcher) download(ctx context.Context, csvURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, csvURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", csvURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download catalog from %s: %w", csvURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog download from %s returned status %d", csvURL, resp.StatusCode)
	}

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "catalog-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close catalog download: %w", err)
	}

	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return fmt.Errorf("failed to replace catalog at %s: %w", destPath, err)
	}

	f.logger.Info("Catalog updated",
		String("url", csvURL),
		String("path", destPath),
		logger.Int64("bytes", n),
	)
	return nil
}
