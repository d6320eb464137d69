package cost

import (
	"fmt"
	"maps"
	"strings"
)

type PricingTable struct {
	InputPricePerMillion  float64
	OutputPricePerMillion float64
}

type ProviderPricing map[string]map[string]PricingTable

// USD list prices. Copilot requests are billed through the GitHub plan and are left out.
var defaultPricing = ProviderPricing{
	"claude": {
		"claude-sonnet-4-5": {InputPricePerMillion: 3.00, OutputPricePerMillion: 15.00},
		"claude-haiku-4-5":  {InputPricePerMillion: 1.00, OutputPricePerMillion: 5.00},
	},
	"chatgpt": {
		"gpt-4o":      {InputPricePerMillion: 2.50, OutputPricePerMillion: 10.00},
		"gpt-4o-mini": {InputPricePerMillion: 0.15, OutputPricePerMillion: 0.60},
	},
	"gemini": {
		"gemini-2.5-pro":        {InputPricePerMillion: 1.25, OutputPricePerMillion: 10.00},
		"gemini-2.5-flash":      {InputPricePerMillion: 0.30, OutputPricePerMillion: 2.50},
		"gemini-2.5-flash-lite": {InputPricePerMillion: 0.10, OutputPricePerMillion: 0.40},
	},
}

type Calculator struct {
	pricing ProviderPricing
}

func NewCalculator() *Calculator {
	pricing := make(ProviderPricing, len(defaultPricing))
	for provider, models := range defaultPricing {
		pricing[provider] = maps.Clone(models)
	}
	return &Calculator{pricing: pricing}
}

// EstimateCost returns the USD cost of one run, or 0 when the model has no price.
// Dated model ids such as claude-haiku-4-5-20251001 use the longest known prefix.
func (c *Calculator) EstimateCost(provider, model string, inputTokens, outputTokens int) float64 {
	table, ok := c.lookup(strings.ToLower(provider), strings.ToLower(model))
	if !ok {
		return 0
	}

	inputCost := (float64(inputTokens) / 1_000_000) * table.InputPricePerMillion
	outputCost := (float64(outputTokens) / 1_000_000) * table.OutputPricePerMillion
	return inputCost + outputCost
}

func (c *Calculator) lookup(provider, model string) (PricingTable, bool) {
	models, ok := c.pricing[provider]
	if !ok {
		return PricingTable{}, false
	}
	if table, ok := models[model]; ok {
		return table, true
	}

	best := ""
	for name := range models {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return PricingTable{}, false
	}
	return models[best], true
}

// GetPricing returns the exact pricing entry for a provider and model.
func (c *Calculator) GetPricing(provider, model string) (PricingTable, error) {
	provider = strings.ToLower(provider)
	model = strings.ToLower(model)

	models, exists := c.pricing[provider]
	if !exists {
		return PricingTable{}, fmt.Errorf("provider %s not found", provider)
	}
	table, exists := models[model]
	if !exists {
		return PricingTable{}, fmt.Errorf("model %s not found for provider %s", model, provider)
	}
	return table, nil
}

// AddPricing registers a price for this calculator only.
func (c *Calculator) AddPricing(provider, model string, table PricingTable) {
	provider = strings.ToLower(provider)
	model = strings.ToLower(model)

	if _, exists := c.pricing[provider]; !exists {
		c.pricing[provider] = make(map[string]PricingTable)
	}
	c.pricing[provider][model] = table
}
