package db

import (
	"context"

	"github.com/shandysiswandi/goverify/internal/notification/entity"
	"github.com/shandysiswandi/goverify/internal/pkg/valueobject"
)

const createDeliveryLogSQL = `INSERT INTO notification_delivery_logs
	(id, account_id, event_id, trigger_key, channel, recipient, status, data)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (s *DB) CreateDeliveryLog(ctx context.Context, dl entity.CreateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	data := dl.Data
	if data == nil {
		data = valueobject.JSONMap{}
	}

	_, err = s.conn.Exec(ctx, createDeliveryLogSQL,
		dl.ID,
		dl.AccountID,
		dl.EventID,
		dl.TriggerKey.String(),
		int16(dl.Channel),
		dl.Recipient,
		int16(dl.Status),
		data,
	)
	return s.mapError(err)
}
