package entity

import (
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/valueobject"
)

type CreateDeliveryLog struct {
	ID         int64
	AccountID  int64
	EventID    string
	TriggerKey TriggerKey
	Channel    Channel
	Recipient  string
	Status     DeliveryStatus
	Data       valueobject.JSONMap
}

type UpdateDeliveryLog struct {
	ID               int64
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
	NextRetryAt      *time.Time
}

type Template struct {
	TriggerKey TriggerKey
	Subject    string
	Body       string
}
