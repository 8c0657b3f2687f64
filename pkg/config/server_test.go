package config

import "testing"

func TestGetHost(t *testing.T) {
	if got := GetHost(); got != "0.0.0.0" {
		t.Errorf("default host = %q, want 0.0.0.0", got)
	}

	t.Setenv("HOST", "127.0.0.1")
	if got := GetHost(); got != "127.0.0.1" {
		t.Errorf("host = %q, want 127.0.0.1", got)
	}
}

func TestGetAPIPrefix(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
		want   string
	}{
		{"unset", "", ""},
		{"bare slash", "/", ""},
		{"missing leading slash", "api", "/api"},
		{"already normalized", "/api", "/api"},
		{"trailing slash", "/api/", "/api"},
		{"surrounding whitespace", "  /api  ", "/api"},
		{"nested", "gatewatch/api", "/gatewatch/api"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("API_PREFIX", tc.prefix)
			if got := GetAPIPrefix(); got != tc.want {
				t.Errorf("GetAPIPrefix(%q) = %q, want %q", tc.prefix, got, tc.want)
			}
		})
	}
}

func TestGetOpenAPIServers(t *testing.T) {
	t.Setenv("OPENAPI_SERVERS", "")
	if servers := GetOpenAPIServers(); servers != nil {
		t.Errorf("unset variable should yield nil, got %+v", servers)
	}

	t.Setenv("OPENAPI_SERVERS", "https://gatewatch.example|Production, ,http://localhost:3000")
	servers := GetOpenAPIServers()
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d: %+v", len(servers), servers)
	}
	if servers[0].URL != "https://gatewatch.example" || servers[0].Description != "Production" {
		t.Errorf("first server = %+v", servers[0])
	}
	if servers[1].URL != "http://localhost:3000" || servers[1].Description != "" {
		t.Errorf("second server = %+v", servers[1])
	}
}
