package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"venue-editor/internal/editor/models"

	"github.com/google/uuid"
)

// ============================================================
// SQLite Repository
// ============================================================

var ErrNotFound = errors.New("layout not found")

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Init применяет миграции.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ============================================================
// Load
// ============================================================

func (r *Repository) LoadScene(ctx context.Context, venueID string) (models.SceneData, error) {
	data := models.SceneData{VenueID: venueID}
	var decor string

	row := r.db.QueryRowContext(ctx, `
        SELECT id, canvas_width, canvas_height, decor
        FROM layouts
        WHERE venue_id = ?
    `, venueID)
	if err := row.Scan(&data.LayoutID, &data.CanvasSize.Width, &data.CanvasSize.Height, &decor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SceneData{}, ErrNotFound
		}
		return models.SceneData{}, fmt.Errorf("select layout: %w", err)
	}

	if err := json.Unmarshal([]byte(decor), &data.DecorElements); err != nil {
		return models.SceneData{}, fmt.Errorf("decode decor: %w", err)
	}

	units, err := r.loadUnits(ctx, data.LayoutID)
	if err != nil {
		return models.SceneData{}, err
	}
	zones, err := r.loadZones(ctx, data.LayoutID)
	if err != nil {
		return models.SceneData{}, err
	}
	data.SeatingUnits = units
	data.ZoneRegions = zones
	return data, nil
}

func (r *Repository) loadUnits(ctx context.Context, layoutID string) ([]models.SeatingUnit, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, x, y, width, height, rotation, shape, min_covers, max_covers, zone, group_id, blocked, block_reason
        FROM seating_units
        WHERE layout_id = ?
        ORDER BY rowid
    `, layoutID)
	if err != nil {
		return nil, fmt.Errorf("select units: %w", err)
	}
	defer rows.Close()

	units := []models.SeatingUnit{}
	for rows.Next() {
		var u models.SeatingUnit
		if err := rows.Scan(&u.ID, &u.Name, &u.X, &u.Y, &u.Width, &u.Height, &u.Rotation, &u.Shape,
			&u.MinCovers, &u.MaxCovers, &u.Zone, &u.GroupID, &u.Blocked, &u.BlockReason); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *Repository) loadZones(ctx context.Context, layoutID string) ([]models.ZoneRegion, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, label, x, y, width, height, category, color
        FROM zone_regions
        WHERE layout_id = ?
        ORDER BY rowid
    `, layoutID)
	if err != nil {
		return nil, fmt.Errorf("select zones: %w", err)
	}
	defer rows.Close()

	zones := []models.ZoneRegion{}
	for rows.Next() {
		var z models.ZoneRegion
		if err := rows.Scan(&z.ID, &z.Label, &z.X, &z.Y, &z.Width, &z.Height, &z.Category, &z.Color); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// ============================================================
// Save
// ============================================================

// SaveScene применяет пакет в одной транзакции: либо всё, либо ничего.
func (r *Repository) SaveScene(ctx context.Context, patch models.ScenePatch) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	layoutID, err := r.ensureLayout(ctx, tx, patch)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `
        UPDATE layouts
        SET canvas_width = ?, canvas_height = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = ?
    `, patch.CanvasSize.Width, patch.CanvasSize.Height, layoutID); err != nil {
		return fmt.Errorf("update layout: %w", err)
	}
	if len(patch.Decor) > 0 {
		if !json.Valid(patch.Decor) {
			return fmt.Errorf("decor is not valid json")
		}
		if _, err = tx.ExecContext(ctx, `UPDATE layouts SET decor = ? WHERE id = ?`, string(patch.Decor), layoutID); err != nil {
			return fmt.Errorf("update decor: %w", err)
		}
	}

	for _, u := range patch.SeatingUnits {
		if _, err = tx.ExecContext(ctx, `
            INSERT INTO seating_units (id, layout_id, name, x, y, width, height, rotation, shape, min_covers, max_covers, zone, group_id, blocked, block_reason)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (layout_id, id) DO UPDATE SET
                name = excluded.name, x = excluded.x, y = excluded.y,
                width = excluded.width, height = excluded.height, rotation = excluded.rotation,
                shape = excluded.shape, min_covers = excluded.min_covers, max_covers = excluded.max_covers,
                zone = excluded.zone, group_id = excluded.group_id,
                blocked = excluded.blocked, block_reason = excluded.block_reason
        `, u.ID, layoutID, u.Name, u.X, u.Y, u.Width, u.Height, u.Rotation, string(u.Shape),
			u.MinCovers, u.MaxCovers, string(u.Zone), u.GroupID, u.Blocked, u.BlockReason); err != nil {
			return fmt.Errorf("upsert unit %s: %w", u.ID, err)
		}
	}
	for _, z := range patch.ZoneRegions {
		if _, err = tx.ExecContext(ctx, `
            INSERT INTO zone_regions (id, layout_id, label, x, y, width, height, category, color)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (layout_id, id) DO UPDATE SET
                label = excluded.label, x = excluded.x, y = excluded.y,
                width = excluded.width, height = excluded.height,
                category = excluded.category, color = excluded.color
        `, z.ID, layoutID, z.Label, z.X, z.Y, z.Width, z.Height, string(z.Category), z.Color); err != nil {
			return fmt.Errorf("upsert zone %s: %w", z.ID, err)
		}
	}

	for _, id := range patch.RemovedUnitIDs {
		if _, err = tx.ExecContext(ctx, `DELETE FROM seating_units WHERE layout_id = ? AND id = ?`, layoutID, id); err != nil {
			return fmt.Errorf("delete unit %s: %w", id, err)
		}
	}
	for _, id := range patch.RemovedZoneIDs {
		if _, err = tx.ExecContext(ctx, `DELETE FROM zone_regions WHERE layout_id = ? AND id = ?`, layoutID, id); err != nil {
			return fmt.Errorf("delete zone %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Printf("[LAYOUTS] saved venue %s layout %s: %d units, %d zones, -%d units, -%d zones",
		patch.VenueID, layoutID, len(patch.SeatingUnits), len(patch.ZoneRegions), len(patch.RemovedUnitIDs), len(patch.RemovedZoneIDs))
	return nil
}

// ensureLayout находит запись плана площадки или создаёт её.
func (r *Repository) ensureLayout(ctx context.Context, tx *sql.Tx, patch models.ScenePatch) (string, error) {
	var layoutID string
	err := tx.QueryRowContext(ctx, `SELECT id FROM layouts WHERE venue_id = ?`, patch.VenueID).Scan(&layoutID)
	if err == nil {
		return layoutID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("select layout: %w", err)
	}

	layoutID = patch.LayoutID
	if layoutID == "" {
		layoutID = uuid.NewString()
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO layouts (id, venue_id) VALUES (?, ?)`, layoutID, patch.VenueID); err != nil {
		return "", fmt.Errorf("insert layout: %w", err)
	}
	return layoutID, nil
}
