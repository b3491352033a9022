package model

import (
	"time"

	"github.com/google/uuid"
)

type BaseEvent struct {
	EventID     string    `json:"eventId"`
	AggregateID string    `json:"aggregateId"`
	CreatedAt   time.Time `json:"createdAt"`
	EventType   EventType `json:"eventType"`
}

func NewBaseEvent(aggregateID string, eventType EventType, at time.Time) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New().String(),
		AggregateID: aggregateID,
		CreatedAt:   at,
		EventType:   eventType,
	}
}

func (e *BaseEvent) GetID() string {
	return e.EventID
}

func (e *BaseEvent) GetAggregateID() string {
	return e.AggregateID
}

type EventType string

const (
	OrderCreatedEventName          EventType = "OrderCreated"
	OrderStatusChangedEventName    EventType = "OrderStatusChanged"
	OrderPaymentUpdatedEventName   EventType = "OrderPaymentUpdated"
	LoyaltyPointsCreditedEventName EventType = "LoyaltyPointsCredited"
	LoyaltyRewardRedeemedEventName EventType = "LoyaltyRewardRedeemed"
	UserRegisteredEventName        EventType = "UserRegistered"
)

type Event interface {
	Type() EventType
	GetID() string
	GetAggregateID() string
}
