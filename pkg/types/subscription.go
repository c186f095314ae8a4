package types

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

type OwnerType string

const (
	OwnerTypeUser         OwnerType = "user"
	OwnerTypeOrganization OwnerType = "organization"
)

func (t OwnerType) Valid() bool {
	return t == OwnerTypeUser || t == OwnerTypeOrganization
}

type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonPurchase SubscriptionChangeReason = "purchase"
	SubscriptionChangeReasonRollover SubscriptionChangeReason = "rollover"
	SubscriptionChangeReasonRenewal  SubscriptionChangeReason = "renewal"
	SubscriptionChangeReasonCancel   SubscriptionChangeReason = "cancel"
	SubscriptionChangeReasonExpire   SubscriptionChangeReason = "expire"
)

// QuotaDenyReason is the machine-readable code returned with a denied reservation.
type QuotaDenyReason string

const (
	QuotaDenyReasonAdLimitReached         QuotaDenyReason = "AD_LIMIT_REACHED"
	QuotaDenyReasonActiveAdLimitReached   QuotaDenyReason = "ACTIVE_AD_LIMIT_REACHED"
	QuotaDenyReasonImpressionLimitReached QuotaDenyReason = "IMPRESSION_LIMIT_REACHED"
	QuotaDenyReasonSubscriptionInactive   QuotaDenyReason = "SUBSCRIPTION_INACTIVE"
	QuotaDenyReasonSubscriptionEnded      QuotaDenyReason = "SUBSCRIPTION_ENDED"
	QuotaDenyReasonNoSubscription         QuotaDenyReason = "NO_SUBSCRIPTION"
	// QuotaDenyReasonContention means every attempt lost its write to a
	// concurrent update while quota was still available. Callers may retry.
	QuotaDenyReasonContention QuotaDenyReason = "RESERVATION_CONTENTION"
)
