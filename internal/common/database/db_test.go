package database

import (
	"strings"
	"testing"
)

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		sslMode string
	}{
		{name: "ローカル", host: "localhost", sslMode: "sslmode=disable"},
		{name: "リモート", host: "db.internal", sslMode: "sslmode=require"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_HOST", "")
			cfg := Config{Host: tt.host, Port: 5432, UserName: "u", Password: "p", DBName: "stay"}
			dsn := cfg.DSN()
			if !strings.Contains(dsn, tt.sslMode) {
				t.Errorf("DSN() = %q, want %s", dsn, tt.sslMode)
			}
			if !strings.Contains(dsn, "host="+tt.host) || !strings.Contains(dsn, "dbname=stay") {
				t.Errorf("DSN() = %q", dsn)
			}
		})
	}
}
