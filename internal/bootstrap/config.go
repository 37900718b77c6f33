package bootstrap

import (
	"errors"
	"fmt"

	"github.com/go-authgate/tokengate/internal/config"
)

const minProductionSecretLength = 32

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateProductionSecrets(cfg); err != nil {
		return fmt.Errorf("invalid production configuration: %w", err)
	}
	return nil
}

// validateProductionSecrets refuses to run production with development
// defaults or short signing keys
func validateProductionSecrets(cfg *config.Config) error {
	if !cfg.IsProduction {
		return nil
	}

	switch {
	case cfg.JWTSecret == config.DefaultJWTSecret:
		return errors.New("JWT_SECRET must be changed from the default")
	case len(cfg.JWTSecret) < minProductionSecretLength:
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minProductionSecretLength)
	case cfg.SessionSecret == config.DefaultSessionSecret:
		return errors.New("SESSION_SECRET must be changed from the default")
	case len(cfg.SessionSecret) < minProductionSecretLength:
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", minProductionSecretLength)
	}
	return nil
}
