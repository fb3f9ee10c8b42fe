package linkmap

import (
	"bufio"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/docpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/metrics"
	"git.home.luguber.info/inful/docpipe/internal/retry"
)

// InventoryObject is one entry of a Sphinx objects.inv (version 2) file.
type InventoryObject struct {
	Name        string
	Domain      string
	Role        string
	Priority    int
	Location    string
	DisplayName string
}

// InventorySource describes where to fetch an inventory and how to turn it
// into a link map.
type InventorySource struct {
	Host          string
	Scope         Scope
	URL           string
	IncludeRoles  []string
	NameTransform string
}

// SourceFromConfig converts a configured inventory.
func SourceFromConfig(c config.InventoryConfig) InventorySource {
	return InventorySource{
		Host:          c.Host,
		Scope:         Scope(c.Scope),
		URL:           c.URL,
		IncludeRoles:  c.IncludeRoles,
		NameTransform: c.NameTransform,
	}
}

const inventoryHeaderLines = 4

// ParseInventory decodes a Sphinx inventory: four plain-text header lines
// followed by a zlib-compressed body of "name domain:role priority location
// display-name" lines. A location ending in "$" stands for the object name
// and a display name of "-" repeats it.
func ParseInventory(r io.Reader) ([]InventoryObject, error) {
	br := bufio.NewReader(r)
	for i := 0; i < inventoryHeaderLines; i++ {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("inventory header truncated at line %d: %w", i+1, err)
		}
		if i == 0 && !strings.HasPrefix(line, "# Sphinx inventory version 2") {
			return nil, fmt.Errorf("unsupported inventory format: %q", strings.TrimSpace(line))
		}
	}

	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("inventory body: %w", err)
	}
	defer func() { _ = zr.Close() }()

	var objects []InventoryObject
	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		obj, ok := parseInventoryLine(line)
		if ok {
			objects = append(objects, obj)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("inventory body: %w", err)
	}
	return objects, nil
}

func parseInventoryLine(line string) (InventoryObject, bool) {
	fields := splitFields(line, 5)
	if len(fields) < 5 {
		return InventoryObject{}, false
	}
	priority, err := strconv.Atoi(fields[2])
	if err != nil {
		return InventoryObject{}, false
	}
	obj := InventoryObject{
		Name:        fields[0],
		Priority:    priority,
		Location:    fields[3],
		DisplayName: fields[4],
	}
	obj.Domain, obj.Role, _ = strings.Cut(fields[1], ":")
	if strings.HasSuffix(obj.Location, "$") {
		obj.Location = strings.TrimSuffix(obj.Location, "$") + obj.Name
	}
	if obj.DisplayName == "-" {
		obj.DisplayName = obj.Name
	}
	return obj, true
}

// splitFields splits on runs of blanks into at most n fields; the last
// field keeps its inner whitespace.
func splitFields(s string, n int) []string {
	var out []string
	for len(out) < n-1 {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return out
		}
		i := strings.IndexAny(s, " \t")
		if i < 0 {
			return append(out, s)
		}
		out = append(out, s[:i])
		s = s[i:]
	}
	if s = strings.TrimLeft(s, " \t"); s != "" {
		out = append(out, s)
	}
	return out
}

// transformName applies a source's name transform. It reports false when
// the object should not be linked.
func transformName(obj InventoryObject, transform string) (string, bool) {
	if transform != config.NameTransformShort {
		return obj.Name, true
	}
	switch obj.Role {
	case "class", "function", "method", "attribute":
		if i := strings.LastIndex(obj.Name, "."); i >= 0 {
			return obj.Name[i+1:], true
		}
		return obj.Name, true
	case "module":
		return obj.Name, true
	}
	return "", false
}

// BuildLinkMap turns inventory objects into a link map for src.
func BuildLinkMap(src InventorySource, objects []InventoryObject) LinkMap {
	include := make(map[string]bool, len(src.IncludeRoles))
	for _, role := range src.IncludeRoles {
		include[role] = true
	}
	links := make(map[string]string)
	for _, obj := range objects {
		if len(include) > 0 && !include[obj.Role] {
			continue
		}
		name, ok := transformName(obj, src.NameTransform)
		if !ok {
			continue
		}
		links[name] = obj.Location
	}
	return LinkMap{Host: src.Host, Scope: src.Scope, Links: links}
}

// GenerateFromInventory downloads and converts a single inventory.
func GenerateFromInventory(ctx context.Context, client *http.Client, src InventorySource) (LinkMap, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return LinkMap{}, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid inventory URL").
			WithContext("url", src.URL).
			Build()
	}
	resp, err := client.Do(req)
	if err != nil {
		return LinkMap{}, foundationerrors.WrapError(err, foundationerrors.CategoryNetwork, "inventory download failed").
			Retryable().
			WithContext("url", src.URL).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b := foundationerrors.NetworkError(fmt.Sprintf("inventory download returned %s", resp.Status)).
			WithContext("url", src.URL)
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			b = b.WithRetry(foundationerrors.RetryNever)
		}
		return LinkMap{}, b.Build()
	}

	objects, err := ParseInventory(resp.Body)
	if err != nil {
		return LinkMap{}, foundationerrors.WrapError(err, foundationerrors.CategoryLinkMap, "failed to parse inventory").
			WithContext("url", src.URL).
			Build()
	}
	return BuildLinkMap(src, objects), nil
}

// Generator fetches inventories with retries.
type Generator struct {
	Client      *http.Client
	Retry       retry.Policy
	Logger      *slog.Logger
	Recorder    metrics.Recorder
	Concurrency int
}

// Generate fetches one inventory, retrying transient failures.
func (g *Generator) Generate(ctx context.Context, src InventorySource) (LinkMap, error) {
	rec := metrics.OrNoop(g.Recorder)
	var lm LinkMap
	attempt := 0
	err := g.Retry.Do(ctx, func(ctx context.Context) error {
		if attempt > 0 {
			rec.IncRetry("inventory")
		}
		attempt++
		var err error
		lm, err = GenerateFromInventory(ctx, g.Client, src)
		return err
	}, foundationerrors.IsTransient)
	return lm, err
}

// GenerateAll fetches every source. A failing source is logged and
// contributes an empty link map; it never fails the whole run. The result
// keeps the order of sources.
func (g *Generator) GenerateAll(ctx context.Context, sources []InventorySource) []LinkMap {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := g.Concurrency
	if limit <= 0 {
		limit = 4
	}

	out := make([]LinkMap, len(sources))
	var eg errgroup.Group
	eg.SetLimit(limit)
	for i, src := range sources {
		eg.Go(func() error {
			start := time.Now()
			lm, err := g.Generate(ctx, src)
			if err != nil {
				logger.Error("Failed to generate link map from inventory",
					logfields.Host(src.Host),
					logfields.Scope(string(src.Scope)),
					logfields.URL(src.URL),
					logfields.Error(err))
				out[i] = LinkMap{Host: src.Host, Scope: src.Scope, Links: map[string]string{}}
				return nil
			}
			logger.Info("Generated link map",
				logfields.Host(src.Host),
				logfields.Scope(string(src.Scope)),
				logfields.Count(len(lm.Links)),
				logfields.Elapsed(time.Since(start)))
			out[i] = lm
			return nil
		})
	}
	_ = eg.Wait()
	return out
}
