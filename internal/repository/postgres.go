package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"freightdesk/internal/model"
	"freightdesk/pkg/apierror"
)

const uniqueViolation = "23505"

// PostgresStore keeps each record as a JSONB document in the records table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT doc FROM records WHERE collection = $1 ORDER BY created_at, id`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	out := []model.Record{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		rec, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}

	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection string, id string) (model.Record, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM records WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	return decode(raw)
}

func (s *PostgresStore) FindBy(ctx context.Context, collection string, field string, value string) (model.Record, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM records
		 WHERE collection = $1 AND lower(doc->>$2) = lower($3)
		 ORDER BY created_at LIMIT 1`, collection, field, value).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(collection, field+"="+value)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", collection, field, err)
	}

	return decode(raw)
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, rec model.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}

	createdAt, ok := rec.Time("createdAt")
	if !ok {
		createdAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (collection, id, doc, created_at) VALUES ($1, $2, $3, $4)`,
		collection, rec.ID(), raw, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == "idx_records_user_email" {
				return apierror.Conflict(model.ErrEmailExists.Error(), rec.String("email"))
			}
			return apierror.Conflict("Record already exists", collection+"/"+rec.ID())
		}
		return fmt.Errorf("insert %s: %w", collection, err)
	}

	return nil
}

func (s *PostgresStore) Replace(ctx context.Context, collection string, rec model.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE records SET doc = $3 WHERE collection = $1 AND id = $2`, collection, rec.ID(), raw)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apierror.Conflict(model.ErrEmailExists.Error(), rec.String("email"))
		}
		return fmt.Errorf("update %s/%s: %w", collection, rec.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(collection, rec.ID())
	}

	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection string, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(collection, id)
	}

	return nil
}

func decode(raw []byte) (model.Record, error) {
	rec := model.Record{}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
