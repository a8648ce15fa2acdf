package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/goverify/internal/notification/entity"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/valueobject"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newStore(t *testing.T) *DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("goverify"),
		tcpostgres.WithUsername("goverify"),
		tcpostgres.WithPassword("goverify"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres dsn: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New() error = %v", err)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return NewDB(pool, instrument.NewNoop())
}

func TestDB_DeliveryLog(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	t.Run("create then mark failed", func(t *testing.T) {
		// Arrange
		next := time.Date(2026, 1, 2, 3, 6, 0, 0, time.UTC)
		err := store.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
			ID:         100,
			AccountID:  7,
			EventID:    "evt-1",
			TriggerKey: entity.TriggerKeyEmailConfirmationCode,
			Channel:    entity.ChannelEmail,
			Recipient:  "ana@example.com",
			Status:     entity.DeliveryStatusQueued,
			Data:       valueobject.JSONMap{"purpose": "email_confirmation"},
		})
		if err != nil {
			t.Fatalf("CreateDeliveryLog() error = %v", err)
		}

		// Act
		err = store.UpdateDeliveryLogStatus(ctx, entity.UpdateDeliveryLog{
			ID:               100,
			Status:           entity.DeliveryStatusFailed,
			ProviderResponse: valueobject.JSONMap{"error": "smtp down"},
			NextRetryAt:      &next,
		})
		got, getErr := store.GetDeliveryLog(ctx, 100)

		// Assert
		if err != nil {
			t.Fatalf("UpdateDeliveryLogStatus() error = %v", err)
		}
		if getErr != nil {
			t.Fatalf("GetDeliveryLog() error = %v", getErr)
		}
		if got.Status != entity.DeliveryStatusFailed || got.ProviderResponse.GetString("error") != "smtp down" {
			t.Fatalf("log = %+v", got)
		}
		if !got.NextRetryAt.Valid || !got.NextRetryAt.Time.Equal(next) {
			t.Fatalf("NextRetryAt = %+v, want %v", got.NextRetryAt, next)
		}
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		// Act
		err := store.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
			ID: 100, AccountID: 7, TriggerKey: entity.TriggerKeyEmailConfirmed,
			Channel: entity.ChannelEmail, Recipient: "ana@example.com", Status: entity.DeliveryStatusQueued,
		})

		// Assert
		if !errors.Is(err, goerror.ErrConflict) {
			t.Fatalf("CreateDeliveryLog() error = %v, want %v", err, goerror.ErrConflict)
		}
	})

	t.Run("update of a missing log", func(t *testing.T) {
		// Act
		err := store.UpdateDeliveryLogStatus(ctx, entity.UpdateDeliveryLog{ID: 999, Status: entity.DeliveryStatusSent})

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("UpdateDeliveryLogStatus() error = %v, want %v", err, goerror.ErrNotFound)
		}
	})
}
