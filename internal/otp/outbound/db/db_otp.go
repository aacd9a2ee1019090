package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/mailotp/internal/otp/entity"
)

const (
	queryFindOTPByIdentity = `SELECT id, identity, code, issued_at, expires_at
FROM otp_codes
WHERE identity = $1
ORDER BY issued_at DESC
LIMIT 1`

	queryDeleteOTPByIdentity = `DELETE FROM otp_codes WHERE identity = $1`

	queryCreateOTP = `INSERT INTO otp_codes (id, identity, code, issued_at, expires_at)
VALUES ($1, $2, $3, $4, $5)`
)

type otpRow struct {
	ID        int64     `db:"id"`
	Identity  string    `db:"identity"`
	Code      string    `db:"code"`
	IssuedAt  time.Time `db:"issued_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (s *DB) FindByIdentity(ctx context.Context, identity string) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "FindByIdentity")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryFindOTPByIdentity, identity)
	if err != nil {
		return nil, s.mapError(err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[otpRow])
	if err != nil {
		return nil, s.mapError(err)
	}

	return &entity.OTP{
		ID:        row.ID,
		Identity:  row.Identity,
		Code:      row.Code,
		IssuedAt:  row.IssuedAt.UTC(),
		ExpiresAt: row.ExpiresAt.UTC(),
	}, nil
}

// DeleteByIdentity removes every row of the identity. No rows is not an error.
func (s *DB) DeleteByIdentity(ctx context.Context, identity string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteByIdentity")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryDeleteOTPByIdentity, identity)
	err = s.mapError(err)
	return err
}

func (s *DB) Create(ctx context.Context, in entity.OTP) (err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateOTP, in.ID, in.Identity, in.Code, in.IssuedAt, in.ExpiresAt)
	err = s.mapError(err)
	return err
}
