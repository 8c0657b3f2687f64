package config

import "strings"

// ServerInfo describes one OpenAPI server entry
type ServerInfo struct {
	URL         string
	Description string
}

// GetHost returns the HTTP bind host
func GetHost() string {
	return GetEnv("HOST", "0.0.0.0")
}

// GetAPIPrefix returns the path prefix the unified API is mounted under,
// normalized to "" or "/prefix"
func GetAPIPrefix() string {
	prefix := strings.TrimSpace(GetEnv("API_PREFIX", ""))
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/")
}

// GetFrontendURL returns the public base URL advertised in the OpenAPI spec
func GetFrontendURL() string {
	return GetEnv("FRONTEND_URL", "http://localhost:8080")
}

// GetOpenAPIServers parses OPENAPI_SERVERS, a comma-separated list of
// "url|description" entries. Returns nil when the variable is unset so the
// caller can fall back to its defaults.
func GetOpenAPIServers() []ServerInfo {
	raw := strings.TrimSpace(GetEnv("OPENAPI_SERVERS", ""))
	if raw == "" {
		return nil
	}

	var servers []ServerInfo
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		url, description, _ := strings.Cut(entry, "|")
		servers = append(servers, ServerInfo{
			URL:         strings.TrimSpace(url),
			Description: strings.TrimSpace(description),
		})
	}
	return servers
}
