package core

import "github.com/example/assessly-billing/internal/models"

// PriceTable maps provider price IDs to plan tiers.
type PriceTable struct {
	plans map[string]models.Plan
}

// NewPriceTable binds the configured price IDs. An empty binding leaves that
// tier unreachable.
func NewPriceTable(basic, professional, enterprise string) PriceTable {
	t := PriceTable{plans: make(map[string]models.Plan, 3)}
	for priceID, plan := range map[string]models.Plan{
		basic:        models.PlanBasic,
		professional: models.PlanProfessional,
		enterprise:   models.PlanEnterprise,
	} {
		if priceID != "" {
			t.plans[priceID] = plan
		}
	}
	return t
}

// PlanFor returns the tier bound to priceID, or free for anything unrecognized.
func (t PriceTable) PlanFor(priceID string) models.Plan {
	if plan, ok := t.plans[priceID]; ok && priceID != "" {
		return plan
	}
	return models.PlanFree
}
