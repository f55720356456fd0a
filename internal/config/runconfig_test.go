package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := EmptyRunConfig()
	if got := cfg.GetArbIDColumn(); got != "arbitration_id" {
		t.Errorf("GetArbIDColumn = %q", got)
	}
	if got := cfg.GetDataColumn(); got != "data_field" {
		t.Errorf("GetDataColumn = %q", got)
	}
	if got := cfg.GetTimestampColumn(); got != "timestamp" {
		t.Errorf("GetTimestampColumn = %q", got)
	}
	if got := cfg.GetSerialBaud(); got != 115200 {
		t.Errorf("GetSerialBaud = %d", got)
	}
	if got := cfg.GetDatabasePath(); got != "feature_data.db" {
		t.Errorf("GetDatabasePath = %q", got)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, "run.json", `{"serial_device": "/dev/ttyACM3", "arb_id_column": "can_id"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.GetSerialDevice(); got != "/dev/ttyACM3" {
		t.Errorf("GetSerialDevice = %q", got)
	}
	if got := cfg.GetArbIDColumn(); got != "can_id" {
		t.Errorf("GetArbIDColumn = %q", got)
	}
	// Unset fields keep defaults.
	if got := cfg.GetSerialBaud(); got != 115200 {
		t.Errorf("GetSerialBaud = %d", got)
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := writeConfig(t, "run.yaml", `{}`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for .yaml extension")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "run.json", `{"serial_baud": -9600}`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative baud")
	}

	path = writeConfig(t, "run2.json", `{"data_column": ""}`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for empty column name")
	}

	path = writeConfig(t, "run3.json", `{"verify_indexes": [0, -4]}`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative verify index")
	}
}

func TestVerifyIndexes(t *testing.T) {
	if got := EmptyRunConfig().GetVerifyIndexes(); got != nil {
		t.Errorf("GetVerifyIndexes = %v, want nil", got)
	}

	path := writeConfig(t, "run.json", `{"verify_indexes": [0, 7, 63]}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 7, 63}
	got := cfg.GetVerifyIndexes()
	if len(got) != len(want) {
		t.Fatalf("GetVerifyIndexes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetVerifyIndexes[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
