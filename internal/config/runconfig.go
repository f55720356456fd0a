// Package config loads the optional JSON run configuration shared by the
// converter and the feature sender. Fields omitted from the file keep their
// defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RunConfig holds the knobs a conversion or send run can override. All fields
// are pointers so an absent key is distinguishable from an explicit zero.
type RunConfig struct {
	// Capture CSV column names
	ArbIDColumn     *string `json:"arb_id_column,omitempty"`
	DataColumn      *string `json:"data_column,omitempty"`
	TimestampColumn *string `json:"timestamp_column,omitempty"`

	// Serial link params
	SerialDevice *string `json:"serial_device,omitempty"`
	SerialBaud   *int    `json:"serial_baud,omitempty"`

	// Feature store
	DatabasePath *string `json:"database_path,omitempty"`

	// Conversion checks. A nil slice keeps the built-in spot sample.
	VerifyIndexes []int `json:"verify_indexes,omitempty"`
}

// EmptyRunConfig returns a RunConfig with every field unset.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// Load reads a RunConfig from a JSON file. The path must have a .json
// extension and stay under the max file size.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that set values are usable.
func (c *RunConfig) Validate() error {
	if c.SerialBaud != nil && *c.SerialBaud <= 0 {
		return fmt.Errorf("serial_baud must be positive, got %d", *c.SerialBaud)
	}
	for name, col := range map[string]*string{
		"arb_id_column":    c.ArbIDColumn,
		"data_column":      c.DataColumn,
		"timestamp_column": c.TimestampColumn,
	} {
		if col != nil && *col == "" {
			return fmt.Errorf("%s must not be empty when set", name)
		}
	}
	for _, i := range c.VerifyIndexes {
		if i < 0 {
			return fmt.Errorf("verify_indexes must be non-negative, got %d", i)
		}
	}
	return nil
}

// GetVerifyIndexes returns the configured verification spot indexes, or nil
// to use the built-in sample.
func (c *RunConfig) GetVerifyIndexes() []int {
	return c.VerifyIndexes
}

// GetArbIDColumn returns the arbitration ID column name or the default.
func (c *RunConfig) GetArbIDColumn() string {
	if c.ArbIDColumn == nil {
		return "arbitration_id"
	}
	return *c.ArbIDColumn
}

// GetDataColumn returns the payload column name or the default.
func (c *RunConfig) GetDataColumn() string {
	if c.DataColumn == nil {
		return "data_field"
	}
	return *c.DataColumn
}

// GetTimestampColumn returns the timestamp column name or the default.
func (c *RunConfig) GetTimestampColumn() string {
	if c.TimestampColumn == nil {
		return "timestamp"
	}
	return *c.TimestampColumn
}

// GetSerialDevice returns the serial device path or the default.
func (c *RunConfig) GetSerialDevice() string {
	if c.SerialDevice == nil {
		return "/dev/ttyUSB0"
	}
	return *c.SerialDevice
}

// GetSerialBaud returns the serial baud rate or the default.
func (c *RunConfig) GetSerialBaud() int {
	if c.SerialBaud == nil {
		return 115200
	}
	return *c.SerialBaud
}

// GetDatabasePath returns the feature store path or the default.
func (c *RunConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return "feature_data.db"
	}
	return *c.DatabasePath
}
