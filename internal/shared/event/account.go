package event

// Published by the account service. The verification module consumes both.
const (
	AccountRegisteredDestination     string = "account_registered"
	AccountRegisteredConsumerIssue   string = "account_registered_verification"
	AccountEmailVerifiedDestination  string = "account_email_verified"
	AccountEmailVerifiedConsumerDrop string = "account_email_verified_verification"
)

type AccountRegisteredMessage struct {
	EventID   string `json:"event_id"`
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
}

type AccountEmailVerifiedMessage struct {
	EventID   string `json:"event_id"`
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
}
