package config

import "github.com/manthysbr/connectorseed/internal/core/domain"

// MaskSecret returns a masked version of a secret for display.
// Shows only the last 4 characters: "****abcd"
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// Masked returns a copy of cfg that is safe to log.
func Masked(cfg *domain.AppConfig) *domain.AppConfig {
	cp := *cfg
	cp.Provider.APIKey = MaskSecret(cfg.Provider.APIKey)
	return &cp
}
