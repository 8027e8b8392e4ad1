package repository

import "telegram-ai-forge/internal/domain/model"

// PricingCatalog resolves the price-table row for a model. Lookup fails
// open: an unlisted model returns ok=false and callers price it at zero
// rather than erroring, which knowingly under-reports spend for unlisted
// models.
type PricingCatalog interface {
	Lookup(modelName string) (model.ModelPricing, bool)
}
