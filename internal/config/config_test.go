package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate runs the test in an empty directory so no stray .env is loaded.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout.Std() != 10*time.Second || cfg.SearchDelay.Std() != 500*time.Millisecond {
		t.Errorf("Timeout = %v, SearchDelay = %v", cfg.Timeout.Std(), cfg.SearchDelay.Std())
	}
	if cfg.MinChars != 3 {
		t.Errorf("MinChars = %d", cfg.MinChars)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.json")
	body := `{"api_url":"http://catalog.internal:9000","search_delay":"300ms","min_chars":4}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CATALOG_MIN_CHARS", "2")
	t.Setenv("CATALOG_TIMEOUT", "3s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIURL != "http://catalog.internal:9000" {
		t.Errorf("APIURL = %q, want file value", cfg.APIURL)
	}
	if cfg.SearchDelay.Std() != 300*time.Millisecond {
		t.Errorf("SearchDelay = %v, want file value", cfg.SearchDelay.Std())
	}
	if cfg.MinChars != 2 {
		t.Errorf("MinChars = %d, env should win over file", cfg.MinChars)
	}
	if cfg.Timeout.Std() != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout.Std())
	}
	if !cfg.Seed {
		t.Error("unset keys should keep their defaults")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CATALOG_LISTEN=:9999\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv sets the variable for the process; restore it afterwards.
	t.Setenv("CATALOG_LISTEN", "")
	os.Unsetenv("CATALOG_LISTEN")

	cfg, err := Load(filepath.Join(dir, "none.json"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Listen != ":9999" {
		t.Errorf("Listen = %q, want value from .env", cfg.Listen)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "broken.json")
	os.WriteFile(path, []byte("{not json"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("malformed file should fail")
	}

	t.Setenv("CATALOG_SEARCH_DELAY", "soon")
	if _, err := Load(filepath.Join(dir, "none.json")); err == nil {
		t.Error("unparseable duration should fail")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChars = 0
	if cfg.Validate() == nil {
		t.Error("min_chars 0 should be rejected")
	}
	cfg = DefaultConfig()
	cfg.APIURL = ""
	if cfg.Validate() == nil {
		t.Error("empty api_url should be rejected")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.APIURL = "http://example.test"
	cfg.SearchDelay = Duration(750 * time.Millisecond)
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if want := `"search_delay": "750ms"`; !strings.Contains(string(data), want) {
		t.Errorf("saved file missing %s:\n%s", want, data)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.APIURL != cfg.APIURL || got.SearchDelay != cfg.SearchDelay {
		t.Errorf("round trip = %+v", got)
	}
}
