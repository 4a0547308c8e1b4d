package sink

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lucky89144/DataHawk/internal/model"
)

var testTime = time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)

func testFinding(data string) model.Finding {
	return model.NewFinding(data, "email", "https://example.com/page", testTime)
}

// TestParseFormat tests format parsing.
func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Format
	}{
		{"txt", FormatTXT},
		{"TXT", FormatTXT},
		{"csv", FormatCSV},
		{"json", FormatJSON},
		{"jsonl", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if err != nil {
			t.Fatalf("ParseFormat(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseFormat(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

// TestFileName tests results file naming.
func TestFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seed     string
		format   Format
		expected string
	}{
		{"https://example.com/start", FormatTXT, "datahawk_results_example_com.txt"},
		{"http://Sub.Example.org", FormatCSV, "datahawk_results_sub_example_org.csv"},
		{"http://localhost:8080/", FormatJSON, "datahawk_results_localhost_8080.json"},
	}
	for _, tt := range tests {
		got, err := FileName(tt.seed, tt.format)
		if err != nil {
			t.Fatalf("FileName(%q) unexpected error: %v", tt.seed, err)
		}
		if got != tt.expected {
			t.Errorf("FileName(%q) = %q, expected %q", tt.seed, got, tt.expected)
		}
	}

	if _, err := FileName("no-host", FormatTXT); err == nil {
		t.Error("expected error for URL without host")
	}
}

// TestEncode tests the record layout of every format.
func TestEncode(t *testing.T) {
	t.Parallel()

	f := testFinding("alice@example.com")

	t.Run("txt", func(t *testing.T) {
		t.Parallel()

		got, err := FormatTXT.Encode(f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := "Data: alice@example.com\n" +
			"Source URL: https://example.com/page\n" +
			"Scraped At: 2024-05-01T12:30:45Z\n" +
			strings.Repeat("-", 40) + "\n"
		if string(got) != expected {
			t.Errorf("got %q, expected %q", got, expected)
		}
	})

	t.Run("csv quotes fields", func(t *testing.T) {
		t.Parallel()

		got, err := FormatCSV.Encode(testFinding(`a,"b"`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := `"a,""b""",https://example.com/page,2024-05-01T12:30:45Z` + "\n"
		if string(got) != expected {
			t.Errorf("got %q, expected %q", got, expected)
		}
	})

	t.Run("json line", func(t *testing.T) {
		t.Parallel()

		got, err := FormatJSON.Encode(f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := `{"data":"alice@example.com","source_url":"https://example.com/page","scraped_at":"2024-05-01T12:30:45Z"}` + "\n"
		if string(got) != expected {
			t.Errorf("got %q, expected %q", got, expected)
		}
	})
}

// TestFileSinkJSONLines tests that 100 findings produce 100 parseable lines in order.
func TestFileSinkJSONLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.json")
	s, err := OpenFile(path, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range 100 {
		if err := s.Write(testFinding(fmt.Sprintf("user%d@example.com", i))); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	i := 0
	for scanner.Scan() {
		var rec map[string]string
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line %d not valid JSON: %v", i, err)
		}
		if want := fmt.Sprintf("user%d@example.com", i); rec["data"] != want {
			t.Errorf("line %d data = %q, expected %q", i, rec["data"], want)
		}
		if len(rec) != 3 {
			t.Errorf("line %d has %d keys", i, len(rec))
		}
		i++
	}
	if i != 100 {
		t.Errorf("got %d lines, expected 100", i)
	}
}

// TestFileSinkConcurrentWrites tests that concurrent records never interleave.
func TestFileSinkConcurrentWrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	s, err := OpenFile(path, FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				data := fmt.Sprintf("w%d-%d,%s", w, i, strings.Repeat("x", 200))
				if err := s.Write(testFinding(data)); err != nil {
					t.Errorf("write: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	if s.Count() != writers*perWriter {
		t.Errorf("count = %d", s.Count())
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != writers*perWriter {
		t.Fatalf("got %d records, expected %d", len(records), writers*perWriter)
	}
	for _, rec := range records {
		if len(rec) != 3 || !strings.HasSuffix(rec[0], strings.Repeat("x", 200)) {
			t.Fatalf("corrupted record %q", rec)
		}
	}
}

// TestFileSinkAppends tests that reopening continues the same file.
func TestFileSinkAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	for i := range 2 {
		s, err := OpenFile(path, FormatTXT)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := s.Write(testFinding("a@b.example")); err != nil {
			t.Fatal(err)
		}
		_ = s.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "Data: a@b.example"); got != 2 {
		t.Errorf("got %d records, expected 2", got)
	}
}

// TestFileSinkClosed tests writing after Close.
func TestFileSinkClosed(t *testing.T) {
	t.Parallel()

	s, err := OpenFile(filepath.Join(t.TempDir(), "out.txt"), FormatTXT)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Close()
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	err = s.Write(testFinding("x@y.example"))
	var we *WriteError
	if !errors.As(err, &we) || !errors.Is(err, ErrClosed) {
		t.Errorf("expected WriteError wrapping ErrClosed, got %v", err)
	}
}

// TestOpenSeedFile tests that a crawl writes one file named after the first seed.
func TestOpenSeedFile(t *testing.T) {
	t.Parallel()

	t.Run("all hosts share the first seed's file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s, err := OpenSeedFile(dir, FormatTXT, []string{"https://a.example.com/", "https://b.example.org/"})
		if err != nil {
			t.Fatal(err)
		}
		for _, f := range []model.Finding{
			model.NewFinding("1", "custom", "https://a.example.com/x", testTime),
			model.NewFinding("2", "custom", "https://b.example.org/y", testTime),
		} {
			if err := s.Write(f); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].Name() != "datahawk_results_a_example_com.txt" {
			t.Fatalf("expected one file for the first seed, got %v", entries)
		}
		if s.Path() != filepath.Join(dir, "datahawk_results_a_example_com.txt") {
			t.Errorf("unexpected path %q", s.Path())
		}
		content, _ := os.ReadFile(s.Path())
		if !strings.Contains(string(content), "Data: 1\n") || !strings.Contains(string(content), "Data: 2\n") {
			t.Errorf("file = %q", content)
		}
	})

	t.Run("requires a seed", func(t *testing.T) {
		t.Parallel()

		if _, err := OpenSeedFile(t.TempDir(), FormatTXT, nil); err == nil {
			t.Error("expected error without seeds")
		}
	})

	t.Run("rejects a seed without host", func(t *testing.T) {
		t.Parallel()

		if _, err := OpenSeedFile(t.TempDir(), FormatCSV, []string{"no-host"}); err == nil {
			t.Error("expected error for a seed without host")
		}
	})
}

type failingSink struct{ closed bool }

func (s *failingSink) Write(model.Finding) error { return errors.New("boom") }
func (s *failingSink) Close() error              { s.closed = true; return nil }

type memorySink struct {
	mu       sync.Mutex
	findings []model.Finding
}

func (s *memorySink) Write(f model.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, f)
	return nil
}
func (s *memorySink) Close() error { return nil }

// TestTee tests primary and secondary error handling.
func TestTee(t *testing.T) {
	t.Parallel()

	t.Run("secondary failure is not returned", func(t *testing.T) {
		t.Parallel()

		primary := &memorySink{}
		secondary := &failingSink{}
		tee := NewTee(nil, primary, secondary)
		if err := tee.Write(testFinding("a@b.example")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(primary.findings) != 1 {
			t.Errorf("primary got %d findings", len(primary.findings))
		}
		_ = tee.Close()
		if !secondary.closed {
			t.Error("secondary was not closed")
		}
	})

	t.Run("primary failure is returned", func(t *testing.T) {
		t.Parallel()

		secondary := &memorySink{}
		tee := NewTee(nil, &failingSink{}, secondary)
		if err := tee.Write(testFinding("a@b.example")); err == nil {
			t.Error("expected error")
		}
		if len(secondary.findings) != 0 {
			t.Error("secondary should not receive findings the primary rejected")
		}
	})
}
