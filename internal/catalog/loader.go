// Package catalog loads menu items from CSV seed sources.
//
// Each source is a CSV stream of id,name,price,category[,available] rows,
// plain or gzipped. A header row whose first field is "id" is skipped.
package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/shopspring/decimal"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Loader reads menu seed sources concurrently. When sources overlap, the
// item from the later source wins.
type Loader struct {
	sources []sourceItems
	client  *http.Client
	mu      sync.RWMutex
}

type sourceItems struct {
	name  string
	items []models.MenuItem
}

// loadResult holds the result of loading a single source
type loadResult struct {
	index int
	items []models.MenuItem
	err   error
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// LoadFromFiles reads the given files concurrently
func (l *Loader) LoadFromFiles(ctx context.Context, paths []string) error {
	return l.load(ctx, paths, l.loadFile)
}

// LoadFromURLs downloads the given URLs concurrently
func (l *Loader) LoadFromURLs(ctx context.Context, urls []string) error {
	return l.load(ctx, urls, l.loadURL)
}

func (l *Loader) load(ctx context.Context, names []string, fetch func(context.Context, string) ([]models.MenuItem, error)) error {
	if len(names) == 0 {
		return errors.New("no sources provided")
	}

	resultChan := make(chan loadResult, len(names))
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(index int, source string) {
			defer wg.Done()
			items, err := fetch(ctx, source)
			resultChan <- loadResult{index: index, items: items, err: err}
		}(i, name)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results maintaining source order
	results := make([]loadResult, len(names))
	for result := range resultChan {
		results[result.index] = result
	}

	for i, result := range results {
		if result.err != nil {
			return fmt.Errorf("failed to load %s: %w", names[i], result.err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, result := range results {
		l.sources = append(l.sources, sourceItems{name: names[i], items: result.items})
	}
	return nil
}

func (l *Loader) loadFile(ctx context.Context, path string) ([]models.MenuItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return parseSource(f)
}

func (l *Loader) loadURL(ctx context.Context, url string) ([]models.MenuItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return parseSource(resp.Body)
}

// parseSource detects gzip by its magic bytes and parses the CSV rows
func parseSource(r io.Reader) ([]models.MenuItem, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(2); err == nil && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		return parseItems(gz)
	}
	return parseItems(br)
}

func parseItems(r io.Reader) ([]models.MenuItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	items := make([]models.MenuItem, 0)
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "id") {
			continue
		}

		item, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func parseRecord(record []string) (models.MenuItem, error) {
	if len(record) < 4 || len(record) > 5 {
		return models.MenuItem{}, fmt.Errorf("expected 4 or 5 fields, got %d", len(record))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil || id <= 0 {
		return models.MenuItem{}, fmt.Errorf("invalid id %q", record[0])
	}

	name := strings.TrimSpace(record[1])
	if name == "" {
		return models.MenuItem{}, errors.New("name is required")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil || price.IsNegative() {
		return models.MenuItem{}, fmt.Errorf("invalid price %q", record[2])
	}

	available := true
	if len(record) == 5 && strings.TrimSpace(record[4]) != "" {
		available, err = strconv.ParseBool(strings.TrimSpace(record[4]))
		if err != nil {
			return models.MenuItem{}, fmt.Errorf("invalid available flag %q", record[4])
		}
	}

	return models.MenuItem{
		ID:        id,
		Name:      name,
		Price:     price,
		Category:  strings.TrimSpace(record[3]),
		Available: available,
	}, nil
}

// Items returns the merged items ordered by ID
func (l *Loader) Items() []models.MenuItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	merged := make(map[int64]models.MenuItem)
	for _, src := range l.sources {
		for _, item := range src.items {
			merged[item.ID] = item
		}
	}

	items := make([]models.MenuItem, 0, len(merged))
	for _, item := range merged {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// GetStats returns statistics about loaded sources
func (l *Loader) GetStats() map[string]interface{} {
	l.mu.RLock()
	sizes := make([]int, len(l.sources))
	for i, src := range l.sources {
		sizes[i] = len(src.items)
	}
	total := len(l.sources)
	l.mu.RUnlock()

	return map[string]interface{}{
		"total_sources": total,
		"source_sizes":  sizes,
		"total_items":   len(l.Items()),
	}
}
