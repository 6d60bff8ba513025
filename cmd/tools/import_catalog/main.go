package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kaede/ski-trip-bot-go/internal/domain"
)

const (
	listingURL     = "https://www.snowjapan.com/japan-ski-resorts"
	userAgent      = "Mozilla/5.0 (compatible; SkiTripBot/1.0)"
	requestTimeout = 15 * time.Second
	outputFile     = "internal/domain/data/resorts.json"
)

var slugSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()
	httpClient := &http.Client{Timeout: requestTimeout}

	resorts, err := fetchResortListing(ctx, httpClient)
	if err != nil {
		logger.Fatal("failed to fetch resort listing", zap.Error(err))
	}
	if len(resorts) == 0 {
		logger.Fatal("no resorts scraped from listing page")
	}

	// Existing entries win: curated names and group keys must not be
	// clobbered by a re-import.
	existing, err := domain.LoadCatalog()
	if err != nil {
		logger.Fatal("failed to load current catalog", zap.Error(err))
	}

	merged := mergeCatalog(existing, resorts)
	if err := writeCatalog(merged); err != nil {
		logger.Fatal("failed to write catalog", zap.Error(err))
	}

	logger.Info("Catalog import completed",
		zap.Int("scraped", len(resorts)),
		zap.Int("total", len(merged.Resorts)),
		zap.String("output", outputFile),
	)
}

func fetchResortListing(ctx context.Context, client *http.Client) ([]*domain.ResortEntity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var resorts []*domain.ResortEntity
	doc.Find(".resort-list .resort-entry").Each(func(_ int, sel *goquery.Selection) {
		en := strings.TrimSpace(sel.Find(".resort-name-en").Text())
		ja := strings.TrimSpace(sel.Find(".resort-name-ja").Text())
		if en == "" && ja == "" {
			return
		}

		names := make(map[string]string, 2)
		if en != "" {
			names["en"] = en
		}
		if ja != "" {
			names["ja"] = ja
		}

		resorts = append(resorts, &domain.ResortEntity{
			ID:    slugify(en, ja),
			Names: names,
		})
	})

	return resorts, nil
}

func slugify(en, ja string) string {
	base := en
	if base == "" {
		base = ja
	}
	slug := slugSanitizer.ReplaceAllString(strings.ToLower(base), "-")
	return strings.Trim(slug, "-")
}

func mergeCatalog(existing *domain.Catalog, scraped []*domain.ResortEntity) *domain.Catalog {
	known := make(map[string]struct{}, len(existing.Resorts))
	for _, resort := range existing.Resorts {
		known[resort.ID] = struct{}{}
	}

	merged := &domain.Catalog{
		Version:     existing.Version,
		LastUpdated: time.Now().UTC().Format("2006-01-02"),
		Resorts:     existing.Resorts,
	}
	for _, resort := range scraped {
		if resort.ID == "" {
			continue
		}
		if _, ok := known[resort.ID]; ok {
			continue
		}
		merged.Resorts = append(merged.Resorts, resort)
		known[resort.ID] = struct{}{}
	}
	return merged
}

func writeCatalog(catalog *domain.Catalog) error {
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputFile, append(data, '\n'), 0o644)
}
