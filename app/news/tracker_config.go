package news

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultUpdateFrequency = "Every 30 min"

type Channel struct {
	Name    string `yaml:"name" json:"name"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

type TableConfig struct {
	SelectedColumns []string `yaml:"selected_columns" json:"selectedColumns"`
}

type TrackerConfig struct {
	Channels        []Channel   `yaml:"channels" json:"channels"`
	TableConfig     TableConfig `yaml:"table_config" json:"tableConfig"`
	UpdateFrequency string      `yaml:"update_frequency" json:"updateFrequency"`
}

func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		Channels: []Channel{
			{Name: "CNBC News", Enabled: true},
			{Name: "Twitter", Enabled: true},
			{Name: "Reddit Community", Enabled: false},
			{Name: "Live Mint", Enabled: false},
			{Name: "Money Control", Enabled: false},
			{Name: "Times Prime", Enabled: false},
			{Name: "Google Finance", Enabled: false},
		},
		TableConfig: TableConfig{
			SelectedColumns: []string{
				"News Headlines",
				"Source of News",
				"CMP",
				"1D change",
				"Confidence Level",
			},
		},
		UpdateFrequency: DefaultUpdateFrequency,
	}
}

// LoadTrackerConfig reads the default tracker configuration from a YAML
// file. An empty path or a missing file yields the built-in default.
func LoadTrackerConfig(path string) (*TrackerConfig, error) {
	if path == "" {
		return DefaultTrackerConfig(), nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Warn("Tracker config not found, using default", "path", path)
		return DefaultTrackerConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tracker config: %w", err)
	}

	return ParseTrackerConfig(data)
}

func ParseTrackerConfig(data []byte) (*TrackerConfig, error) {
	config := DefaultTrackerConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse tracker config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker config: %w", err)
	}

	return config, nil
}

func (c *TrackerConfig) Validate() error {
	for i, channel := range c.Channels {
		if strings.TrimSpace(channel.Name) == "" {
			return fmt.Errorf("channel %d has no name", i)
		}
	}

	if _, err := ParseFrequency(c.UpdateFrequency); err != nil {
		return err
	}

	return nil
}

func (c *TrackerConfig) EnabledChannels() []string {
	channels := make([]string, 0, len(c.Channels))
	for _, channel := range c.Channels {
		if channel.Enabled {
			channels = append(channels, channel.Name)
		}
	}
	return channels
}

// Frequency is either a fixed interval or a daily hour.
type Frequency struct {
	Interval  time.Duration
	Daily     bool
	DailyHour int
}

var (
	intervalPattern = regexp.MustCompile(`(?i)^every\s+(\d+)\s*(m|min|mins|minutes?|h|hr|hrs|hours?)$`)
	dailyPattern    = regexp.MustCompile(`(?i)^daily\s+(\d{1,2})(?::00)?\s*(am|pm)?$`)
)

// ParseFrequency understands "Every N min", "Every N hours", "Hourly" and
// "Daily H am|pm".
func ParseFrequency(s string) (Frequency, error) {
	s = strings.TrimSpace(s)

	if strings.EqualFold(s, "hourly") {
		return Frequency{Interval: time.Hour}, nil
	}

	if m := intervalPattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n <= 0 {
			return Frequency{}, fmt.Errorf("invalid update frequency %q", s)
		}
		unit := time.Minute
		if strings.HasPrefix(strings.ToLower(m[2]), "h") {
			unit = time.Hour
		}
		return Frequency{Interval: time.Duration(n) * unit}, nil
	}

	if m := dailyPattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		switch strings.ToLower(m[2]) {
		case "am":
			if hour < 1 || hour > 12 {
				return Frequency{}, fmt.Errorf("invalid update frequency %q", s)
			}
			hour %= 12
		case "pm":
			if hour < 1 || hour > 12 {
				return Frequency{}, fmt.Errorf("invalid update frequency %q", s)
			}
			hour = hour%12 + 12
		default:
			if hour > 23 {
				return Frequency{}, fmt.Errorf("invalid update frequency %q", s)
			}
		}
		return Frequency{Daily: true, DailyHour: hour}, nil
	}

	return Frequency{}, fmt.Errorf("invalid update frequency %q", s)
}

// ShouldFetch reports whether a fetch is due at now given the last run.
func (f Frequency) ShouldFetch(lastRun *time.Time, now time.Time) bool {
	if f.Daily {
		scheduled := time.Date(now.Year(), now.Month(), now.Day(), f.DailyHour, 0, 0, 0, now.Location())
		if now.Before(scheduled) {
			return false
		}
		return lastRun == nil || lastRun.Before(scheduled)
	}

	if lastRun == nil {
		return true
	}
	return now.Sub(*lastRun) >= f.Interval
}
