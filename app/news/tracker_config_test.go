package news

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		input    string
		expected Frequency
	}{
		{"Every 5 min", Frequency{Interval: 5 * time.Minute}},
		{"Every 30 min", Frequency{Interval: 30 * time.Minute}},
		{"every 2 hours", Frequency{Interval: 2 * time.Hour}},
		{"Hourly", Frequency{Interval: time.Hour}},
		{"Daily 8 am", Frequency{Daily: true, DailyHour: 8}},
		{"Daily 12 am", Frequency{Daily: true, DailyHour: 0}},
		{"Daily 6 pm", Frequency{Daily: true, DailyHour: 18}},
		{"Daily 14", Frequency{Daily: true, DailyHour: 14}},
	}

	for _, tt := range tests {
		got, err := ParseFrequency(tt.input)
		if err != nil {
			t.Errorf("ParseFrequency(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseFrequency(%q): expected %+v, got %+v", tt.input, tt.expected, got)
		}
	}
}

func TestParseFrequency_Invalid(t *testing.T) {
	for _, input := range []string{"", "Weekly", "Every 0 min", "Daily 13 pm", "Daily 25"} {
		if _, err := ParseFrequency(input); err == nil {
			t.Errorf("Expected error for %q", input)
		}
	}
}

func TestFrequency_ShouldFetch_Interval(t *testing.T) {
	freq := Frequency{Interval: 30 * time.Minute}
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	if !freq.ShouldFetch(nil, now) {
		t.Errorf("Expected fetch when never run")
	}

	recent := now.Add(-10 * time.Minute)
	if freq.ShouldFetch(&recent, now) {
		t.Errorf("Expected no fetch 10 minutes after last run")
	}

	due := now.Add(-30 * time.Minute)
	if !freq.ShouldFetch(&due, now) {
		t.Errorf("Expected fetch exactly one interval after last run")
	}
}

func TestFrequency_ShouldFetch_Daily(t *testing.T) {
	freq := Frequency{Daily: true, DailyHour: 8}

	early := time.Date(2024, 1, 15, 7, 59, 0, 0, time.UTC)
	if freq.ShouldFetch(nil, early) {
		t.Errorf("Expected no fetch before the daily hour")
	}

	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	if !freq.ShouldFetch(nil, now) {
		t.Errorf("Expected fetch after the daily hour when never run")
	}

	yesterday := now.Add(-24 * time.Hour)
	if !freq.ShouldFetch(&yesterday, now) {
		t.Errorf("Expected fetch when last run was yesterday")
	}

	today := time.Date(2024, 1, 15, 8, 5, 0, 0, time.UTC)
	if freq.ShouldFetch(&today, now) {
		t.Errorf("Expected no second fetch on the same day")
	}
}

func TestParseTrackerConfig(t *testing.T) {
	data := []byte(`
channels:
  - name: CNBC News
    enabled: true
  - name: Reddit Community
    enabled: false
  - name: Google Finance
    enabled: true
table_config:
  selected_columns: [News Headlines, CMP]
update_frequency: Hourly
`)

	config, err := ParseTrackerConfig(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	enabled := config.EnabledChannels()
	if len(enabled) != 2 || enabled[0] != "CNBC News" || enabled[1] != "Google Finance" {
		t.Errorf("Expected enabled channels [CNBC News Google Finance], got %v", enabled)
	}
	if config.UpdateFrequency != "Hourly" {
		t.Errorf("Expected Hourly, got %s", config.UpdateFrequency)
	}
	if len(config.TableConfig.SelectedColumns) != 2 {
		t.Errorf("Expected 2 selected columns, got %v", config.TableConfig.SelectedColumns)
	}
}

func TestParseTrackerConfig_Invalid(t *testing.T) {
	tests := []string{
		"channels: [",
		"channels:\n  - name: \"\"\n    enabled: true\nupdate_frequency: Hourly\n",
		"update_frequency: Fortnightly\n",
	}

	for _, data := range tests {
		if _, err := ParseTrackerConfig([]byte(data)); err == nil {
			t.Errorf("Expected error for %q", data)
		}
	}
}

func TestLoadTrackerConfig(t *testing.T) {
	config, err := LoadTrackerConfig("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if config.UpdateFrequency != DefaultUpdateFrequency {
		t.Errorf("Expected default frequency, got %s", config.UpdateFrequency)
	}

	missing, err := LoadTrackerConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Unexpected error for missing file: %v", err)
	}
	if len(missing.EnabledChannels()) != 2 {
		t.Errorf("Expected default enabled channels, got %v", missing.EnabledChannels())
	}

	path := filepath.Join(t.TempDir(), "tracker.yml")
	if err := os.WriteFile(path, []byte("channels:\n  - name: Twitter\n    enabled: true\nupdate_frequency: Daily 8 am\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	fromFile, err := LoadTrackerConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fromFile.UpdateFrequency != "Daily 8 am" {
		t.Errorf("Expected Daily 8 am, got %s", fromFile.UpdateFrequency)
	}
}
