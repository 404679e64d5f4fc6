package config

import "time"

type Auth struct {
	JWTSecret string        `env:"AUTH_JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
	Issuer    string        `env:"AUTH_ISSUER" envDefault:"sweetshop"`

	// Bootstrap administrator, created by the migrate command when both are set.
	AdminEmail    string `env:"AUTH_ADMIN_EMAIL"`
	AdminPassword string `env:"AUTH_ADMIN_PASSWORD"`
}
