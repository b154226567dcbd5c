// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var sectionValidator = validator.New()

// ValidateSections applies the struct tags of the sections that carry them.
func ValidateSections(cfg *Config) error {
	sections := []struct {
		name  string
		value any
	}{
		{"secrets", cfg.Secrets},
		{"warehouse", cfg.Warehouse},
		{"shopify", cfg.Shopify},
		{"sync", cfg.Sync},
	}

	for _, s := range sections {
		if err := sectionValidator.Struct(s.value); err != nil {
			return fmt.Errorf("%s: %s", s.name, describeValidation(err))
		}
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// ProductionValidator performs strict validation for production environments
type ProductionValidator struct{}

// Validate performs production-specific validation
func (v *ProductionValidator) Validate(cfg *Config) error {
	if strings.Contains(cfg.Database.Password, "MISSING_") {
		return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
	}

	if cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("database SSL must be enabled in production")
	}

	if cfg.Warehouse.Mode != "http" {
		return fmt.Errorf("warehouse mode must be http in production")
	}

	if cfg.Shopify.AppSecret == "" {
		return fmt.Errorf("%w: shopify app secret", ErrMissingRequiredConfig)
	}

	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("wildcard origin (*) not allowed in production")
		}
	}

	return nil
}
