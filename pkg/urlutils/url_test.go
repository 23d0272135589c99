package urlutils

import "testing"

func TestStripScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://a.example", "a.example"},
		{"http://a.example/blog", "a.example/blog"},
		{"HTTPS://A.example", "A.example"},
		{"a.example", "a.example"},
		{"", ""},
		{"ftp://a.example", "ftp://a.example"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := StripScheme(tt.in); got != tt.want {
				t.Errorf("StripScheme(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := StripScheme(StripScheme(tt.in)); again != tt.want {
				t.Errorf("StripScheme is not idempotent for %q: %q", tt.in, again)
			}
		})
	}
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://a.example/x", true},
		{"http://localhost:5090", true},
		{"/static/assets/img/favicon.png", false},
		{"a.example", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidURL(tt.in); got != tt.want {
			t.Errorf("IsValidURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		relative string
		want     string
	}{
		{
			name:     "absolute path against host",
			base:     "http://localhost:5090",
			relative: "/static/assets/img/favicon.png",
			want:     "http://localhost:5090/static/assets/img/favicon.png",
		},
		{
			name:     "already absolute",
			base:     "http://localhost:5090",
			relative: "https://cdn.example/img.png",
			want:     "https://cdn.example/img.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.base, tt.relative)
			if err != nil {
				t.Fatalf("ResolveURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		base     string
		endpoint string
		want     string
	}{
		{"http://localhost:5090", "/rssfeeds/api", "http://localhost:5090/rssfeeds/api"},
		{"https://reader.example/app/", "rssfeeds/log", "https://reader.example/app/rssfeeds/log"},
	}

	for _, tt := range tests {
		got, err := JoinPath(tt.base, tt.endpoint)
		if err != nil {
			t.Fatalf("JoinPath() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", tt.base, tt.endpoint, got, tt.want)
		}
	}
}
