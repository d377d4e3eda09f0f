package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zfogg/brandcast/internal/logger"
	"go.uber.org/zap"
)

// CheckFunc probes one backing service
type CheckFunc func(ctx context.Context) error

// ServiceValidator handles validation of required services at startup
type ServiceValidator struct {
	requiredServices []string
	checks           map[string]CheckFunc
	timeout          time.Duration
}

// NewServiceValidator creates a validator for the named services (REQUIRED_SERVICES)
func NewServiceValidator(required []string) *ServiceValidator {
	names := make([]string, 0, len(required))
	for _, name := range required {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			names = append(names, name)
		}
	}
	return &ServiceValidator{
		requiredServices: names,
		checks:           make(map[string]CheckFunc),
		timeout:          10 * time.Second,
	}
}

// Register adds the probe for a service name
func (sv *ServiceValidator) Register(name string, check CheckFunc) {
	sv.checks[strings.ToLower(name)] = check
}

// ValidateServices validates all required services, stopping at the first failure
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services", zap.Strings("services", sv.requiredServices))

	for _, name := range sv.requiredServices {
		check, ok := sv.checks[name]
		if !ok {
			return fmt.Errorf("required service %q is not configured", name)
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, sv.timeout)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("Required service validation failed", zap.String("service", name), zap.Error(err))
			return fmt.Errorf("required service %q validation failed: %w", name, err)
		}

		logger.Log.Info("Service validated", zap.String("service", name))
	}

	return nil
}
