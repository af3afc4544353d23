// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "config.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error keeps the file path", func(t *testing.T) {
		t.Parallel()

		err := FormatError(errors.New("some error"), "config.cue")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "config.cue") {
			t.Errorf("error should contain filepath, got: %v", err)
		}
		if !strings.Contains(err.Error(), "some error") {
			t.Errorf("error should contain original message, got: %v", err)
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     []string
		expected string
	}{
		{"empty path", []string{}, ""},
		{"single element", []string{"cargo_bin"}, "cargo_bin"},
		{"nested path", []string{"ui", "color_scheme"}, "ui.color_scheme"},
		{"array index", []string{"rules", "0", "name"}, "rules[0].name"},
		{"nested arrays", []string{"items", "0", "values", "1"}, "items[0].values[1]"},
		{"leading number is a field", []string{"0", "name"}, "0.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatPath(tt.path); got != tt.expected {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"within limit", 11, false},
		{"exact limit", 100, false},
		{"empty", 0, false},
		{"over limit", 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := CheckFileSize(make([]byte, tt.size), 100, "config.cue")
			if !tt.wantErr {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			for _, want := range []string{"config.cue", "101", "100"} {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error should contain %q, got: %v", want, err)
				}
			}
		})
	}
}
