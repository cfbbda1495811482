package postgres

import (
	"context"
	"database/sql"

	"github.com/cwrk-planet/voice-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StateRepository — альтернативный StateStore на Postgres. Контракт тот же,
// что у файлового бекенда: каждая мутация коммитится до возврата.
type StateRepository struct {
	db *pgxpool.Pool
}

func NewStateRepository(db *pgxpool.Pool) *StateRepository {
	return &StateRepository{db: db}
}

// EnsureSchema — таблица создаётся на старте, миграций у сервиса нет.
func (r *StateRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS voice_rooms (
			room_id       text PRIMARY KEY,
			zone_id       text NOT NULL,
			owner_id      text,
			is_personal   boolean NOT NULL DEFAULT false,
			created_at    timestamptz NOT NULL,
			owner_left_at timestamptz
		)`)
	return err
}

func (r *StateRepository) Get(ctx context.Context, roomID string) (*domain.RoomRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT room_id, zone_id, owner_id, is_personal, created_at, owner_left_at
		FROM voice_rooms WHERE room_id=$1`, roomID)
	rec, err := scanRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotTracked
		}
		return nil, err
	}
	return rec, nil
}

func (r *StateRepository) Put(ctx context.Context, rec *domain.RoomRecord) error {
	var owner sql.NullString
	if rec.OwnerID != "" {
		owner = sql.NullString{String: rec.OwnerID, Valid: true}
	}
	var left sql.NullTime
	if rec.OwnerLeftAt != nil {
		left = sql.NullTime{Time: *rec.OwnerLeftAt, Valid: true}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO voice_rooms (room_id, zone_id, owner_id, is_personal, created_at, owner_left_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (room_id) DO UPDATE SET
			zone_id = EXCLUDED.zone_id,
			owner_id = EXCLUDED.owner_id,
			is_personal = EXCLUDED.is_personal,
			created_at = EXCLUDED.created_at,
			owner_left_at = EXCLUDED.owner_left_at`,
		rec.RoomID, rec.ZoneID, owner, rec.IsPersonal, rec.CreatedAt, left)
	return err
}

func (r *StateRepository) Remove(ctx context.Context, roomID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM voice_rooms WHERE room_id=$1`, roomID)
	return err
}

func (r *StateRepository) ListByZone(ctx context.Context, zoneID string) ([]domain.RoomRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT room_id, zone_id, owner_id, is_personal, created_at, owner_left_at
		FROM voice_rooms WHERE zone_id=$1 ORDER BY created_at`, zoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *StateRepository) ListAll(ctx context.Context) ([]domain.RoomRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT room_id, zone_id, owner_id, is_personal, created_at, owner_left_at
		FROM voice_rooms ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func scanRecord(row pgx.Row) (*domain.RoomRecord, error) {
	var (
		rec   domain.RoomRecord
		owner sql.NullString
		left  sql.NullTime
	)
	if err := row.Scan(&rec.RoomID, &rec.ZoneID, &owner, &rec.IsPersonal, &rec.CreatedAt, &left); err != nil {
		return nil, err
	}
	if owner.Valid {
		rec.OwnerID = owner.String
	}
	if left.Valid {
		t := left.Time
		rec.OwnerLeftAt = &t
	}
	return &rec, nil
}

func collectRecords(rows pgx.Rows) ([]domain.RoomRecord, error) {
	var out []domain.RoomRecord
	for rows.Next() {
		var (
			rec   domain.RoomRecord
			owner sql.NullString
			left  sql.NullTime
		)
		if err := rows.Scan(&rec.RoomID, &rec.ZoneID, &owner, &rec.IsPersonal, &rec.CreatedAt, &left); err != nil {
			return nil, err
		}
		if owner.Valid {
			rec.OwnerID = owner.String
		}
		if left.Valid {
			t := left.Time
			rec.OwnerLeftAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
