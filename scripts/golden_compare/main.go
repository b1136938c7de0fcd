package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/transcript-api/internal/service"
)

const expectedSuffix = ".expected.json"

type fixture struct {
	Input    string
	Expected string
}

type comparison struct {
	Fixture  fixture
	Match    bool
	Error    error
	Duration time.Duration
}

func main() {
	var (
		dir     string
		update  bool
		timeout time.Duration
	)

	flag.StringVar(&dir, "fixtures", filepath.Join("testdata", "golden"), "Directory of transcripts with <name>"+expectedSuffix+" siblings")
	flag.BoolVar(&update, "update", false, "Rewrite expected files from current output")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Per fixture parse timeout")
	flag.Parse()

	fixtures, err := loadFixtures(dir)
	if err != nil {
		log.Fatalf("failed to load fixtures: %v", err)
	}

	svc := service.NewTranscriptService(service.TranscriptServiceParams{})
	results := make([]comparison, 0, len(fixtures))
	diffs := 0
	for _, f := range fixtures {
		comp := compareFixture(svc, f, timeout, update)
		if comp.Error != nil || !comp.Match {
			diffs++
		}
		results = append(results, comp)
	}

	printReport(os.Stdout, results)
	fmt.Printf("Fixtures: %d, Diffs: %d\n", len(results), diffs)
	if diffs > 0 {
		os.Exit(1)
	}
}

// loadFixtures pairs every document in dir with its expected output.
func loadFixtures(dir string) ([]fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var fixtures []fixture
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, expectedSuffix) {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		fixtures = append(fixtures, fixture{
			Input:    filepath.Join(dir, name),
			Expected: filepath.Join(dir, base+expectedSuffix),
		})
	}
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixtures found in %s", dir)
	}
	sort.Slice(fixtures, func(i, j int) bool { return fixtures[i].Input < fixtures[j].Input })
	return fixtures, nil
}

func compareFixture(svc *service.TranscriptService, f fixture, timeout time.Duration, update bool) comparison {
	comp := comparison{Fixture: f}
	data, err := os.ReadFile(f.Input)
	if err != nil {
		comp.Error = fmt.Errorf("read input: %w", err)
		return comp
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	start := time.Now()
	result, err := svc.Parse(ctx, service.ParseRequest{Filename: filepath.Base(f.Input), Data: data})
	comp.Duration = time.Since(start)
	if err != nil {
		comp.Error = fmt.Errorf("parse: %w", err)
		return comp
	}

	got, err := json.MarshalIndent(result.Transcript, "", "  ")
	if err != nil {
		comp.Error = err
		return comp
	}
	if update {
		if err := os.WriteFile(f.Expected, append(got, '\n'), 0o644); err != nil {
			comp.Error = fmt.Errorf("write expected: %w", err)
			return comp
		}
		comp.Match = true
		return comp
	}

	want, err := os.ReadFile(f.Expected)
	if err != nil {
		comp.Error = fmt.Errorf("read expected: %w", err)
		return comp
	}
	comp.Match = bodiesEqual(got, want)
	return comp
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

// normalize drops volatile keys and collapses integral floats.
func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		delete(val, "id")
		delete(val, "updatedAt")
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Golden Compare Report")
	fmt.Fprintln(w, "=====================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.Match {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] %s (%s)\n", status, filepath.Base(res.Fixture.Input), res.Duration.Round(time.Microsecond))
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
		}
	}
}
