package event

const (
	VerificationCodeIssuedDestination          string = "verification_code_issued"
	VerificationCodeIssuedConsumerNotification string = "verification_code_issued_notification"

	VerificationCompletedDestination          string = "verification_completed"
	VerificationCompletedConsumerNotification string = "verification_completed_notification"
)

// HeaderCorrelationID carries the request correlation id across brokers.
const HeaderCorrelationID string = "cID"

// VerificationCodeIssuedMessage carries the plaintext code to the mailer. It
// is the only place the code leaves the verification module.
type VerificationCodeIssuedMessage struct {
	EventID   string `json:"event_id"`
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Purpose   string `json:"purpose"`
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
}

type VerificationCompletedMessage struct {
	EventID     string `json:"event_id"`
	AccountID   int64  `json:"account_id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Purpose     string `json:"purpose"`
	CompletedAt int64  `json:"completed_at"`
}
