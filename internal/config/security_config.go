// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Employee access token required
)

// EndpointSecurityConfig maps "METHOD /route/template" to the required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"GET /healthz": SecurityPublic,

	// Commands - Access Protected
	"POST /api/v1/transactions/sale":   SecurityAccess,
	"POST /api/v1/transactions/rental": SecurityAccess,
	"POST /api/v1/transactions/return": SecurityAccess,

	// Lookups - Access Protected
	"GET /api/v1/transactions/{id}":         SecurityAccess,
	"GET /api/v1/rentals/outstanding":       SecurityAccess,
	"GET /api/v1/rentals/{id}":              SecurityAccess,
	"GET /api/v1/rentals/{id}/late-fee":     SecurityAccess,
	"GET /api/v1/customers/{phone}/rentals": SecurityAccess,
	"GET /api/v1/items/{id}/availability":   SecurityAccess,
	"GET /api/v1/stats":                     SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
