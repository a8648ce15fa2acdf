package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/secretbox"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:embed schema.sql
var schema string

// Migrate creates the account and verification tables when missing.
func Migrate(ctx context.Context, conn *pgxpool.Pool) error {
	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("verification: migrate: %w", err)
	}
	return nil
}

type DB struct {
	conn *pgxpool.Pool
	box  secretbox.Box
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, box secretbox.Box, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		box:  box,
		ins:  ins,
	}
}

// mapError translates pgx errors into store sentinels. A missing row and a
// foreign key violation (23503, the account is gone) become ErrNotFound; a
// unique violation (23505) becomes ErrConflict.
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return goerror.ErrConflict
		case "23503":
			return goerror.ErrNotFound
		}
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
