package model

// 使用者事件以 user id 作為 aggregate id
type UserRegisteredEvent struct {
	BaseEvent
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (e *UserRegisteredEvent) Type() EventType {
	return UserRegisteredEventName
}

type LoyaltyPointsCreditedEvent struct {
	BaseEvent
	OrderID    string `json:"orderId"`
	Points     int    `json:"points"`
	NewBalance int    `json:"newBalance"`
}

func (e *LoyaltyPointsCreditedEvent) Type() EventType {
	return LoyaltyPointsCreditedEventName
}

type LoyaltyRewardRedeemedEvent struct {
	BaseEvent
	Reward     string `json:"reward"`
	Points     int    `json:"points"`
	NewBalance int    `json:"newBalance"`
}

func (e *LoyaltyRewardRedeemedEvent) Type() EventType {
	return LoyaltyRewardRedeemedEventName
}
