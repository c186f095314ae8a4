package types

type EventType string

const (
	EventTypeImpression EventType = "impression"
	EventTypeClick      EventType = "click"
	EventTypeEngagement EventType = "engagement"
	EventTypeConversion EventType = "conversion"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeImpression, EventTypeClick, EventTypeEngagement, EventTypeConversion:
		return true
	}
	return false
}

// EventOutcome is the result of recording one tracking event.
type EventOutcome string

const (
	EventOutcomeTracked      EventOutcome = "tracked"
	EventOutcomeDeduped      EventOutcome = "deduped"
	EventOutcomeLimitReached EventOutcome = "limit_reached"
	// EventOutcomeIgnored is returned for events on ads that are not active.
	EventOutcomeIgnored EventOutcome = "ignored"
)

type AdStatus string

const (
	AdStatusActive   AdStatus = "active"
	AdStatusInactive AdStatus = "inactive"
	AdStatusExpired  AdStatus = "expired"
)
