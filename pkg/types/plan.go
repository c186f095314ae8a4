package types

type PaymentProvider string

const (
	PaymentProviderPayPal PaymentProvider = "paypal"
	PaymentProviderStripe PaymentProvider = "stripe"
	PaymentProviderApple  PaymentProvider = "apple"
)

// Plan is one entry of the plan catalog.
type Plan struct {
	ID              string `json:"id" mapstructure:"id"`
	Name            string `json:"name" mapstructure:"name"`
	AdLimit         int64  `json:"ad_limit" mapstructure:"ad_limit"`
	ImpressionLimit int64  `json:"impression_limit" mapstructure:"impression_limit"`
	ActiveAdsLimit  int64  `json:"active_ads_limit" mapstructure:"active_ads_limit"`
	// Price is the plan price for one billing period, in major currency units.
	Price float64 `json:"price" mapstructure:"price"`
	// ProviderPlanIDs maps a payment provider to its plan/product identifier.
	ProviderPlanIDs map[PaymentProvider]string `json:"provider_plan_ids" mapstructure:"provider_plan_ids"`
}

// CostPerImpression is the spend accrued by one billable impression.
func (p *Plan) CostPerImpression() float64 {
	if p == nil || p.ImpressionLimit <= 0 {
		return 0
	}
	return p.Price / float64(p.ImpressionLimit)
}
