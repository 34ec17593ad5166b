package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and
// human-friendly duration strings for the optional config file.
type StructuredJSONConfig struct {
	App struct {
		Version  string `json:"version"`
		DeviceID string `json:"device_id"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Remote struct {
		HTTPAddress    string   `json:"address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"remote,omitempty"`

	Sync struct {
		AutoSync       bool     `json:"auto"`
		Interval       Duration `json:"interval"`
		RetryLimit     int      `json:"retry_limit"`
		ConflictPolicy string   `json:"conflict_policy"`
		MaxQueueLength int      `json:"max_queue_length"`
	} `json:"sync,omitempty"`

	Backup struct {
		Dir string `json:"dir"`
	} `json:"backup,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err = json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json config: %w", err)
	}

	return &StructuredConfig{
		App: App{
			Version:  jsonCfg.App.Version,
			DeviceID: jsonCfg.App.DeviceID,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
		},
		Remote: Remote{
			HTTPAddress:    jsonCfg.Remote.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Remote.RequestTimeout),
		},
		Sync: Sync{
			AutoSync:       jsonCfg.Sync.AutoSync,
			Interval:       time.Duration(jsonCfg.Sync.Interval),
			RetryLimit:     jsonCfg.Sync.RetryLimit,
			ConflictPolicy: jsonCfg.Sync.ConflictPolicy,
			MaxQueueLength: jsonCfg.Sync.MaxQueueLength,
		},
		Backup: Backup{
			Dir: jsonCfg.Backup.Dir,
		},
	}, nil
}

// Duration wraps time.Duration to accept "5m"-style strings in JSON.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler. It accepts either a duration
// string ("30s", "5m") or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		parsed, parseErr := time.ParseDuration(asString)
		if parseErr != nil {
			return fmt.Errorf("error parsing duration %q: %w", asString, parseErr)
		}
		*d = Duration(parsed)
		return nil
	}

	var asNumber int64
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return fmt.Errorf("error parsing duration: %w", err)
	}
	*d = Duration(asNumber)
	return nil
}
