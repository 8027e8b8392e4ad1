package ai

import (
	"strings"

	"telegram-ai-forge/internal/domain/ports/adapter"
)

var _ adapter.CapabilityResolver = (*StaticCapabilities)(nil)

// StaticCapabilities answers caching-capability questions from the
// configured allowlist. Matching is case-insensitive; an empty allowlist
// means no model is treated as cache-capable.
type StaticCapabilities struct {
	cacheModels map[string]struct{}
}

func NewStaticCapabilities(cacheModels []string) *StaticCapabilities {
	allow := make(map[string]struct{}, len(cacheModels))
	for _, m := range cacheModels {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			allow[m] = struct{}{}
		}
	}
	return &StaticCapabilities{cacheModels: allow}
}

func (s *StaticCapabilities) SupportsCaching(modelName string) bool {
	_, ok := s.cacheModels[strings.ToLower(strings.TrimSpace(modelName))]
	return ok
}
