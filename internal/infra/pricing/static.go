// Package pricing holds the static price table used for per-call cost
// estimates. Unknown models cost zero; spend for them is under-reported
// rather than failing any call path.
package pricing

import (
	"strings"

	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.PricingCatalog = (*StaticCatalog)(nil)

// builtin prices are USD per 1M tokens. Config entries override.
var builtin = []model.ModelPricing{
	{ModelName: "gpt-4o", InputPer1M: 2.50, OutputPer1M: 10.00, CacheReadPer1M: 1.25},
	{ModelName: "gpt-4o-mini", InputPer1M: 0.15, OutputPer1M: 0.60, CacheReadPer1M: 0.075},
	{ModelName: "gpt-4.1", InputPer1M: 2.00, OutputPer1M: 8.00, CacheReadPer1M: 0.50},
	{ModelName: "gpt-4.1-mini", InputPer1M: 0.40, OutputPer1M: 1.60, CacheReadPer1M: 0.10},
	{ModelName: "o4-mini", InputPer1M: 1.10, OutputPer1M: 4.40, CacheReadPer1M: 0.275},
	{ModelName: "gemini-2.0-flash", InputPer1M: 0.10, OutputPer1M: 0.40, CacheReadPer1M: 0.025},
	{ModelName: "gemini-2.5-flash", InputPer1M: 0.30, OutputPer1M: 2.50, CacheReadPer1M: 0.075},
	{ModelName: "gemini-2.5-pro", InputPer1M: 1.25, OutputPer1M: 10.00, CacheReadPer1M: 0.31},
}

type StaticCatalog struct {
	table map[string]model.ModelPricing
}

// NewStaticCatalog builds the lookup table from the built-in sheet with
// config entries merged over it, keyed case-insensitively.
func NewStaticCatalog(cfg config.PricingConfig) *StaticCatalog {
	t := make(map[string]model.ModelPricing, len(builtin)+len(cfg.Models))
	for _, p := range builtin {
		t[normalize(p.ModelName)] = p
	}
	for _, e := range cfg.Models {
		t[normalize(e.Name)] = model.ModelPricing{
			ModelName:      e.Name,
			InputPer1M:     e.InputPer1M,
			OutputPer1M:    e.OutputPer1M,
			CacheReadPer1M: e.CacheReadPer1M,
		}
	}
	return &StaticCatalog{table: t}
}

func (c *StaticCatalog) Lookup(modelName string) (model.ModelPricing, bool) {
	p, ok := c.table[normalize(modelName)]
	return p, ok
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
