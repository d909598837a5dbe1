package storage

import "testing"

func TestNewDisabledWithoutCredentials(t *testing.T) {
	client, err := New("", "eu-central", "", "", "media", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client != nil {
		t.Error("expected nil client when endpoint and credentials are empty")
	}
}

func TestBucket(t *testing.T) {
	c := &Client{bucket: "instipress-media"}
	if got := c.Bucket(); got != "instipress-media" {
		t.Errorf("Bucket = %q, want %q", got, "instipress-media")
	}
}

func TestFileURL(t *testing.T) {
	c := &Client{bucket: "media", endpoint: "https://s3.example.com"}
	got := c.FileURL("uploads/logo.png")
	want := "https://s3.example.com/media/uploads/logo.png"
	if got != want {
		t.Errorf("FileURL = %q, want %q", got, want)
	}

	c.publicURL = "https://cdn.example.com"
	got = c.FileURL("uploads/logo.png")
	want = "https://cdn.example.com/uploads/logo.png"
	if got != want {
		t.Errorf("FileURL with CDN = %q, want %q", got, want)
	}
}

func TestKeyFromURL(t *testing.T) {
	c := &Client{bucket: "media", endpoint: "https://s3.example.com", publicURL: "https://cdn.example.com"}

	tests := []struct {
		url    string
		key    string
		wantOK bool
	}{
		{"https://cdn.example.com/uploads/a.png", "uploads/a.png", true},
		{"https://s3.example.com/media/uploads/b.png", "uploads/b.png", true},
		{"https://elsewhere.example.com/c.png", "", false},
	}
	for _, tt := range tests {
		key, ok := c.KeyFromURL(tt.url)
		if key != tt.key || ok != tt.wantOK {
			t.Errorf("KeyFromURL(%q) = %q, %v; want %q, %v", tt.url, key, ok, tt.key, tt.wantOK)
		}
	}
}
