package models

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&Subscription{},
		&SubscriptionLog{},
		&Ad{},
		&AdAnalytics{},
		&AdEngagementCounter{},
		&AdDailyRollup{},
		&EventDedupEntry{},
		&WebhookEvent{},
		&CompensationDeadLetter{},
		&PaymentNotificationLog{},
	}
}
