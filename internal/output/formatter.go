// Package output renders calculation results for the console and for
// machine consumers.
package output

import (
	"fmt"

	"github.com/plansight/retirement-engine/internal/domain"
)

// Formatter renders a calculation result as a byte slice. Implementations
// should be pure (no side effects besides deterministic formatting).
type Formatter interface {
	Format(result *domain.CalculationResult) ([]byte, error)
	// Name returns a short identifier for logging / debugging.
	Name() string
}

var builtInFormatters = []Formatter{
	ConsoleFormatter{},
	JSONFormatter{},
}

// GetFormatterByName fetches a registered formatter.
func GetFormatterByName(name string) (Formatter, error) {
	for _, f := range builtInFormatters {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown output format %q", name)
}
