package markup

import "testing"

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		ref      string
		expected string
	}{
		{"absolute http untouched", "https://forum.test", "http://cdn.test/a.png", "http://cdn.test/a.png"},
		{"absolute https untouched", "https://forum.test", "https://cdn.test/a.png", "https://cdn.test/a.png"},
		{"host-relative", "https://forum.test", "/img/pic.png", "https://forum.test/img/pic.png"},
		{"bare relative", "https://forum.test", "thread-42-1-1.html", "https://forum.test/thread-42-1-1.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveURL(tt.base, tt.ref); got != tt.expected {
				t.Errorf("ResolveURL(%q, %q) = %q, expected %q", tt.base, tt.ref, got, tt.expected)
			}
		})
	}
}
