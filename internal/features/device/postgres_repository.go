package device

import (
	"context"
	"database/sql"
	"errors"

	"go-assetlink/internal/database"
)

// PostgresRepository is the relational variant of the association store.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(pg *database.PostgresDB) *PostgresRepository {
	return &PostgresRepository{db: pg.DB}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assets (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS devices (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			asset_id   TEXT REFERENCES assets(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_devices_asset_id ON devices(asset_id);
	`)
	return err
}

func (r *PostgresRepository) DeviceExists(ctx context.Context, deviceID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM devices WHERE id = $1)`, deviceID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) AssetExists(ctx context.Context, assetID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM assets WHERE id = $1)`, assetID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) GetCurrentAssociation(ctx context.Context, deviceID string) (string, error) {
	var assetID sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT asset_id FROM devices WHERE id = $1`, deviceID).Scan(&assetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return assetID.String, nil
}

func (r *PostgresRepository) SetAssociation(ctx context.Context, deviceID, assetID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE devices SET asset_id = $2, updated_at = now() WHERE id = $1`, deviceID, assetID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ClearAssociation(ctx context.Context, deviceID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE devices SET asset_id = NULL, updated_at = now() WHERE id = $1`, deviceID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateDevice(ctx context.Context, d *Device) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO devices (id, name)
		VALUES ($1, $2)
		RETURNING created_at, updated_at
	`, d.ID, d.Name).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *PostgresRepository) GetDevice(ctx context.Context, id string) (*Device, error) {
	var d Device
	var assetID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, asset_id, created_at, updated_at FROM devices WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &assetID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.AssetID = assetID.String
	return &d, nil
}

func (r *PostgresRepository) ListDevices(ctx context.Context, limit int64) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, asset_id, created_at, updated_at
		FROM devices ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var d Device
		var assetID sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &assetID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.AssetID = assetID.String
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (r *PostgresRepository) CreateAsset(ctx context.Context, a *Asset) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO assets (id, name)
		VALUES ($1, $2)
		RETURNING created_at, updated_at
	`, a.ID, a.Name).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *PostgresRepository) GetAsset(ctx context.Context, id string) (*Asset, error) {
	var a Asset
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM assets WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PostgresRepository) ListAssets(ctx context.Context, limit int64) ([]Asset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM assets ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}
