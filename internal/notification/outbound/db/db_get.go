package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/goverify/internal/notification/entity"
	"github.com/shandysiswandi/goverify/internal/pkg/valueobject"
)

// DeliveryLog is the stored view of a delivery attempt.
type DeliveryLog struct {
	ID               int64
	AccountID        int64
	TriggerKey       entity.TriggerKey
	Status           entity.DeliveryStatus
	ProviderResponse valueobject.JSONMap
	NextRetryAt      pgtype.Timestamptz
}

const getDeliveryLogSQL = `SELECT id, account_id, trigger_key, status, provider_response, next_retry_at
FROM notification_delivery_logs WHERE id = $1`

func (s *DB) GetDeliveryLog(ctx context.Context, id int64) (_ *DeliveryLog, err error) {
	ctx, span := s.startSpan(ctx, "GetDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	var (
		dl      DeliveryLog
		trigger string
		status  int16
	)
	err = s.conn.QueryRow(ctx, getDeliveryLogSQL, id).Scan(
		&dl.ID, &dl.AccountID, &trigger, &status, &dl.ProviderResponse, &dl.NextRetryAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	dl.TriggerKey = entity.TriggerKey(trigger)
	dl.Status = entity.DeliveryStatus(status)
	return &dl, nil
}
