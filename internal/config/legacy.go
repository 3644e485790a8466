package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"
)

const (
	legacyGlobalTable    = "global"
	legacyFilenamesKey   = "filenames"
	legacyOverridePrefix = "exception-"
	legacyTitleKey       = "title"
	legacyDownloadDirKey = "download_directory"
)

// isLegacy reports whether the document uses the older layout: a [global]
// table plus one table per series id.
func isLegacy(doc map[string]any) bool {
	if _, ok := doc[legacyGlobalTable]; !ok {
		return false
	}
	_, modern := doc["series"]
	return !modern
}

// legacyTableOrder lists the top-level table names of a TOML document in the
// order they first appear. Series run in this order.
func legacyTableOrder(data []byte) ([]string, error) {
	var (
		parser  unstable.Parser
		order   []string
		seen    = map[string]struct{}{}
		inTable bool
	)
	add := func(node *unstable.Node) {
		it := node.Key()
		if !it.Next() {
			return
		}
		name := string(it.Node().Data)
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			order = append(order, name)
		}
	}
	parser.Reset(data)
	for parser.NextExpression() {
		expr := parser.Expression()
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			inTable = true
			add(expr)
		case unstable.KeyValue:
			if !inTable {
				add(expr)
			}
		}
	}
	if err := parser.Error(); err != nil {
		return nil, err
	}
	return order, nil
}

// applyLegacy converts the older layout into cfg. Series keep the order of
// their tables in the file; order lists the document's top-level keys.
func applyLegacy(doc map[string]any, order []string, cfg *Config) error {
	global, ok := doc[legacyGlobalTable].(map[string]any)
	if !ok {
		return fmt.Errorf("legacy config: [%s] must be a table", legacyGlobalTable)
	}
	if dir, ok := global[legacyDownloadDirKey].(string); ok {
		cfg.Paths.DownloadDirectory = dir
	}

	ids := make([]string, 0, len(doc))
	listed := make(map[string]struct{}, len(order))
	for _, key := range order {
		if _, ok := doc[key]; ok && key != legacyGlobalTable {
			ids = append(ids, key)
			listed[key] = struct{}{}
		}
	}
	var rest []string
	for key := range doc {
		if _, ok := listed[key]; !ok && key != legacyGlobalTable {
			rest = append(rest, key)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return lessSeriesID(rest[i], rest[j]) })
	ids = append(ids, rest...)

	for _, id := range ids {
		table, ok := doc[id].(map[string]any)
		if !ok {
			return fmt.Errorf("legacy config: [%s] must be a table", id)
		}
		series := Series{ID: id}
		for key, raw := range table {
			value, ok := raw.(string)
			if !ok {
				return fmt.Errorf("legacy config: %s.%s must be a string", id, key)
			}
			switch {
			case key == legacyTitleKey:
				series.Title = value
			case key == legacyFilenamesKey:
				series.Filename = value
			case strings.HasPrefix(key, legacyOverridePrefix):
				if series.Overrides == nil {
					series.Overrides = make(map[string]string)
				}
				series.Overrides[strings.TrimPrefix(key, legacyOverridePrefix)] = value
			}
		}
		cfg.Series = append(cfg.Series, series)
	}
	return nil
}

func lessSeriesID(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
