package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	// Set environment variables
	os.Setenv("STUBDOC_SYNC_WORKERS", "8")
	os.Setenv("STUBDOC_LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("STUBDOC_SYNC_WORKERS")
		os.Unsetenv("STUBDOC_LOG_LEVEL")
	}()

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Sync.Workers != 8 {
		t.Errorf("Sync.Workers = %d, want 8", cfg.Sync.Workers)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
sync:
  stub_ext: ".stub"
  indent_width: 2
log:
  level: warn
  format: json
watch:
  batch_delay_ms: 250
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sync.StubExt != ".stub" {
		t.Errorf("Sync.StubExt = %s, want .stub", cfg.Sync.StubExt)
	}

	if cfg.Sync.IndentWidth != 2 {
		t.Errorf("Sync.IndentWidth = %d, want 2", cfg.Sync.IndentWidth)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %s, want warn", cfg.Log.Level)
	}

	if cfg.Watch.BatchDelayMS != 250 {
		t.Errorf("Watch.BatchDelayMS = %d, want 250", cfg.Watch.BatchDelayMS)
	}

	// Untouched fields keep their defaults
	if cfg.Sync.SourceExt != ".py" {
		t.Errorf("Sync.SourceExt = %s, want .py", cfg.Sync.SourceExt)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "extension without dot",
			modify: func(c *Config) {
				c.Sync.SourceExt = "py"
			},
			wantErr: true,
		},
		{
			name: "identical extensions",
			modify: func(c *Config) {
				c.Sync.StubExt = c.Sync.SourceExt
			},
			wantErr: true,
		},
		{
			name: "indent width out of range",
			modify: func(c *Config) {
				c.Sync.IndentWidth = 0
			},
			wantErr: true,
		},
		{
			name: "zero workers",
			modify: func(c *Config) {
				c.Sync.Workers = 0
			},
			wantErr: true,
		},
		{
			name: "negative batch delay",
			modify: func(c *Config) {
				c.Watch.BatchDelayMS = -1
			},
			wantErr: true,
		},
		{
			name: "zero sync rate",
			modify: func(c *Config) {
				c.Watch.MaxSyncsPerSecond = 0
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Log.Level = "invalid"
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			modify: func(c *Config) {
				c.Log.Format = "xml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSyncConfig_Indent(t *testing.T) {
	cfg := SyncConfig{IndentWidth: 4}
	if got := cfg.Indent(); got != "    " {
		t.Errorf("Indent() = %q, want four spaces", got)
	}

	cfg.IndentWidth = 2
	if got := cfg.Indent(); got != "  " {
		t.Errorf("Indent() = %q, want two spaces", got)
	}
}
