package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags first, then the rules that depend on the selected drivers.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateDrivers(cfg)
}

func validateDrivers(cfg *Config) error {
	switch cfg.DB.Driver {
	case "postgres":
		if cfg.DB.Source == "" {
			return fmt.Errorf("db.source: required when db.driver is postgres")
		}
	case "badger":
		if cfg.Badger.Path == "" && !cfg.Badger.InMemory {
			return fmt.Errorf("badger.path: required unless badger.in_memory is set")
		}
	}

	switch cfg.Storage.Driver {
	case "local":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path: required when storage.driver is local")
		}
		if cfg.Storage.PublicURL == "" {
			return fmt.Errorf("storage.public_url: required when storage.driver is local")
		}
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket: required when storage.driver is s3")
		}
	case "minio":
		m := cfg.Storage.Minio
		if m.Endpoint == "" || m.Bucket == "" {
			return fmt.Errorf("storage.minio: endpoint and bucket are required when storage.driver is minio")
		}
	}

	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
