package scanner

import (
	"context"
	"fmt"

	"IdeaScanner/internal/domain"
)

// Request carries all parameters required to query one endpoint variant.
type Request struct {
	Topic string
	Limit int
}

// Scanner is a single upstream endpoint variant (rising, hot, new, atom).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.SourceItem, error)
}

// Registry keeps a mapping from variant names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry with the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Ordered resolves names in the given order. The order is the fallback order.
func (r *Registry) Ordered(names []string) ([]Scanner, error) {
	out := make([]Scanner, 0, len(names))
	for _, name := range names {
		s, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
