package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestRedaction(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		redacted bool
	}{
		{"passphrase key", "passphrase", "hunter2hunter2", true},
		{"encryption key", "encryption_key", "deadbeefdeadbeef", true},
		{"nested naming", "snapshot_passphrase", "secret-sauce", true},
		{"credential", "db_credential", "user:pass", true},
		{"plain collection", "collection", "users", false},
		{"plain path", "path", "/var/backups/backup_01022026_030405", false},
		{"empty sensitive value", "passphrase", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: "json", Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			l.Info("msg", tt.key, tt.value)
			out := buf.String()

			if tt.redacted {
				if tt.value != "" && strings.Contains(out, tt.value) {
					t.Errorf("sensitive value %q leaked: %s", tt.value, out)
				}
				if !strings.Contains(out, redactedValue) {
					t.Errorf("redaction placeholder missing: %s", out)
				}
			} else {
				if strings.Contains(out, redactedValue) {
					t.Errorf("non-sensitive key %q was redacted: %s", tt.key, out)
				}
			}
		})
	}
}
