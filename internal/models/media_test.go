package models

import "testing"

func TestMediaIsImage(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/gif", true},
		{"image/svg+xml", true},
		{"application/pdf", false},
		{"", false},
	}

	for _, tt := range tests {
		m := &Media{ContentType: tt.contentType}
		if got := m.IsImage(); got != tt.want {
			t.Errorf("IsImage(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
