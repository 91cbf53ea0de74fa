package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate validates GatewayHostConfig using struct tags and the gateway-
// specific cross-field rules (unique upstream names/prefixes — the same
// invariant gatewaycfg.Config.Validate enforces at runtime, checked early
// here so config errors surface at startup rather than first reload).
func (c *GatewayHostConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateUpstreamUniqueness(); err != nil {
		return err
	}

	return nil
}

func (c *GatewayHostConfig) validateUpstreamUniqueness() error {
	names := make(map[string]struct{}, len(c.Gateway.Upstreams))
	prefixes := make(map[string]struct{}, len(c.Gateway.Upstreams))
	for i, u := range c.Gateway.Upstreams {
		if _, dup := names[u.UpstreamName]; dup {
			return fmt.Errorf("gateway.upstreams[%d]: duplicate upstream_name %q", i, u.UpstreamName)
		}
		names[u.UpstreamName] = struct{}{}
		if _, dup := prefixes[u.NamespacePrefix]; dup {
			return fmt.Errorf("gateway.upstreams[%d]: duplicate namespace_prefix %q", i, u.NamespacePrefix)
		}
		prefixes[u.NamespacePrefix] = struct{}{}
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors into a single
// user-friendly message, one clause per violated field.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
