package ratelimit

import "strings"

// MatchEndpoint resolves the config governing a request, or nil when only the
// default limit applies. An exact path+method match wins; configs whose path
// ends in "/" act as prefixes, covering parameterized routes such as
// "/sessions/{id}/answers". Health probes are never limited.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}
