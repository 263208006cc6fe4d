package config

import "strings"

// Environment identifies the runtime environment the client is pointed at.
type Environment string

// Venue names a supported exchange integration.
type Venue string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

const (
	VenueCoinbasePro Venue = "coinbasepro"
	VenueHuobi       Venue = "huobi"
)

func normalizeVenueName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (e Environment) valid() bool {
	return e == EnvDev || e == EnvStaging || e == EnvProd
}
