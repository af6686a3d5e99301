package database

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"
)

var (
	queryHeader = regexp.MustCompile(`(?m)^-- name: \w+ :\w+$`)
	placeholder = regexp.MustCompile(`\$\d+`)
)

// goQueries lists the query constants the Queries methods run.
var goQueries = []string{
	deleteRestaurant,
	getRestaurant,
	getRestaurantByNaturalKey,
	insertRestaurant,
	insertImportRun,
	listImportRuns,
}

// sqlSources splits queries/*.sql into one entry per named query.
func sqlSources(t *testing.T) map[string]string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("queries", "*.sql"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no query sources found: %v", err)
	}

	out := make(map[string]string)
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		text := string(data)
		locs := queryHeader.FindAllStringIndex(text, -1)
		for i, loc := range locs {
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			out[text[loc[0]:loc[1]]] = text[loc[1]:end]
		}
	}
	return out
}

func TestQueriesMatchSQLSources(t *testing.T) {
	sources := sqlSources(t)

	var headers []string
	for _, q := range goQueries {
		header, body, _ := strings.Cut(q, "\n")
		headers = append(headers, header)

		src, ok := sources[header]
		if !ok {
			t.Errorf("%q has no counterpart in queries/*.sql", header)
			continue
		}
		if got, want := maxPlaceholder(body), maxPlaceholder(src); got != want {
			t.Errorf("%q uses %d parameters, source uses %d", header, got, want)
		}
	}

	var sourceHeaders []string
	for h := range sources {
		sourceHeaders = append(sourceHeaders, h)
	}
	sort.Strings(headers)
	sort.Strings(sourceHeaders)
	if strings.Join(headers, "\n") != strings.Join(sourceHeaders, "\n") {
		t.Errorf("query sets differ:\ngo:  %q\nsql: %q", headers, sourceHeaders)
	}
}

func maxPlaceholder(sql string) int {
	n := 0
	for _, p := range placeholder.FindAllString(sql, -1) {
		var v int
		for _, c := range p[1:] {
			v = v*10 + int(c-'0')
		}
		if v > n {
			n = v
		}
	}
	return n
}
