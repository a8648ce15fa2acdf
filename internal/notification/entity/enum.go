package entity

import "strings"

type Channel int16

const (
	ChannelUnknown Channel = 0
	ChannelEmail   Channel = 2
)

func ChannelFromString(raw string) Channel {
	switch strings.TrimSpace(raw) {
	case "email":
		return ChannelEmail
	default:
		return ChannelUnknown
	}
}

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	default:
		return "unknown"
	}
}

type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusQueued  DeliveryStatus = 1
	DeliveryStatusSent    DeliveryStatus = 3
	DeliveryStatusFailed  DeliveryStatus = 4
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusQueued:
		return "queued"
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TriggerKey names the event that caused an email. Each key maps to one
// embedded template.
type TriggerKey string

const (
	TriggerKeyEmailConfirmationCode TriggerKey = "email_confirmation_code"
	TriggerKeyPasswordResetCode     TriggerKey = "password_reset_code"
	TriggerKeyEmailConfirmed        TriggerKey = "email_confirmed"
	TriggerKeyPasswordChanged       TriggerKey = "password_changed"
)

func (tk TriggerKey) String() string {
	return string(tk)
}

// CodeTrigger picks the template for a freshly issued code.
func CodeTrigger(purpose string) (TriggerKey, bool) {
	switch purpose {
	case "email_confirmation":
		return TriggerKeyEmailConfirmationCode, true
	case "password_reset":
		return TriggerKeyPasswordResetCode, true
	default:
		return "", false
	}
}

// CompletionTrigger picks the template confirming a finished verification.
func CompletionTrigger(purpose string) (TriggerKey, bool) {
	switch purpose {
	case "email_confirmation":
		return TriggerKeyEmailConfirmed, true
	case "password_reset":
		return TriggerKeyPasswordChanged, true
	default:
		return "", false
	}
}
