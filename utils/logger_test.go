package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"storefront/config"
	"storefront/utils"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr bool
	}{
		{name: "JSON info", cfg: config.LogConfig{Level: "info", Format: "json"}},
		{name: "Console debug", cfg: config.LogConfig{Level: "DEBUG", Format: "console"}},
		{name: "Unknown level", cfg: config.LogConfig{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := utils.NewLogger(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && logger == nil {
				t.Fatal("NewLogger() returned nil logger")
			}
		})
	}
}

func TestNewLoggerFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "storefront.log")
	logger, err := utils.NewLogger(config.LogConfig{Level: "info", Format: "json", File: path})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}
