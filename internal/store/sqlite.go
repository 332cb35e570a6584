package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/since/internal/domain"
)

//go:embed schema.sql
var schema string

const settingsID = "settings"

// Store handles database operations
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock replaces the time source used for creation and modification stamps
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// AddItem creates an item with the default reminder config and an initial
// event, so every item starts with a history of one.
func (s *Store) AddItem(name, description string) (*domain.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("add item: name is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if exists, err := nameExists(tx, name, ""); err != nil {
		return nil, err
	} else if exists {
		return nil, domain.ErrDuplicateName
	}

	now := s.now().UTC()
	item := domain.Item{
		ID:           uuid.New().String(),
		Name:         name,
		Description:  description,
		CreatedAt:    now,
		LastModified: now,
	}
	_, err = tx.Exec(
		"INSERT INTO items (id, name, description, created_at, last_modified) VALUES (?, ?, ?, ?, ?)",
		item.ID, item.Name, item.Description, item.CreatedAt, item.LastModified,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	cfg, err := upsertConfig(tx, item.ID, domain.DefaultRemindConfig(now))
	if err != nil {
		return nil, err
	}
	item.Config = cfg

	event, err := insertEvent(tx, item.ID, now, nil, nil)
	if err != nil {
		return nil, err
	}
	item.History = []domain.Event{*event}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &item, nil
}

// NameExists reports whether another item already uses the trimmed name.
// excludeID lets an item keep its own name when renamed.
func (s *Store) NameExists(name, excludeID string) (bool, error) {
	return nameExists(s.db, strings.TrimSpace(name), excludeID)
}

func nameExists(q querier, name, excludeID string) (bool, error) {
	var n int
	err := q.QueryRow(
		"SELECT COUNT(*) FROM items WHERE name = ? AND id != ?",
		name, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check name: %w", err)
	}
	return n > 0, nil
}

// GetItem retrieves an item by ID with its config and history
func (s *Store) GetItem(id string) (*domain.Item, error) {
	var item domain.Item
	err := s.db.QueryRow(
		"SELECT id, name, description, created_at, last_modified FROM items WHERE id = ?",
		id,
	).Scan(&item.ID, &item.Name, &item.Description, &item.CreatedAt, &item.LastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get item %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if err := s.loadRelations(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) loadRelations(item *domain.Item) error {
	history, err := s.ListEvents(item.ID)
	if err != nil {
		return err
	}
	item.History = history

	cfg, err := s.GetConfig(item.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	item.Config = cfg
	return nil
}

// ListItems returns every item, ordered by name, with config and history
func (s *Store) ListItems() ([]domain.Item, error) {
	rows, err := s.db.Query(
		"SELECT id, name, description, created_at, last_modified FROM items ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.CreatedAt, &it.LastModified); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	for i := range items {
		if err := s.loadRelations(&items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// FindItem resolves ref as an exact ID, an exact (trimmed) name, or a unique
// ID prefix, in that order.
func (s *Store) FindItem(ref string) (*domain.Item, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("find item: %w", domain.ErrNotFound)
	}

	if item, err := s.GetItem(ref); err == nil {
		return item, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var id string
	err := s.db.QueryRow("SELECT id FROM items WHERE name = ?", ref).Scan(&id)
	if err == nil {
		return s.GetItem(id)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find item: %w", err)
	}

	// compared literally, so % and _ in ref are not wildcards
	rows, err := s.db.Query("SELECT id FROM items WHERE lower(substr(id, 1, length(?))) = lower(?) LIMIT 2", ref, ref)
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	var ids []string
	for rows.Next() {
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("find item %q: %w", ref, domain.ErrNotFound)
	case 1:
		return s.GetItem(ids[0])
	default:
		return nil, fmt.Errorf("find item %q: %w", ref, domain.ErrAmbiguous)
	}
}

// UpdateItem renames and re-describes an item
func (s *Store) UpdateItem(id, name, description string) (*domain.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("update item: name is required")
	}

	exists, err := s.NameExists(name, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateName
	}

	res, err := s.db.Exec(
		"UPDATE items SET name = ?, description = ?, last_modified = ? WHERE id = ?",
		name, description, s.now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if err := requireRow(res, "update item", id); err != nil {
		return nil, err
	}
	return s.GetItem(id)
}

// DeleteItem removes an item along with its events and config
func (s *Store) DeleteItem(id string) error {
	res, err := s.db.Exec("DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireRow(res, "delete item", id)
}

// AddEvent records an occurrence for an item and touches the item's
// modification time
func (s *Store) AddEvent(itemID string, timestamp time.Time, value *float64, notes *string) (*domain.Event, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE items SET last_modified = ? WHERE id = ?", s.now().UTC(), itemID)
	if err != nil {
		return nil, fmt.Errorf("touch item: %w", err)
	}
	if err := requireRow(res, "add event", itemID); err != nil {
		return nil, err
	}

	event, err := insertEvent(tx, itemID, timestamp.UTC(), value, notes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return event, nil
}

func insertEvent(q querier, itemID string, ts time.Time, value *float64, notes *string) (*domain.Event, error) {
	e := domain.Event{
		ID:        uuid.New().String(),
		ItemID:    itemID,
		Timestamp: ts,
		Value:     value,
		Notes:     notes,
	}
	_, err := q.Exec(
		"INSERT INTO events (id, item_id, timestamp, value, notes) VALUES (?, ?, ?, ?, ?)",
		e.ID, e.ItemID, e.Timestamp, value, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return &e, nil
}

// ListEvents returns an item's history, newest first
func (s *Store) ListEvents(itemID string) ([]domain.Event, error) {
	rows, err := s.db.Query(
		"SELECT id, item_id, timestamp, value, notes FROM events WHERE item_id = ? ORDER BY timestamp DESC",
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			e     domain.Event
			value sql.NullFloat64
			notes sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Timestamp, &value, &notes); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if value.Valid {
			e.Value = &value.Float64
		}
		if notes.Valid {
			e.Notes = &notes.String
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// DeleteEvent removes a single event
func (s *Store) DeleteEvent(id string) error {
	res, err := s.db.Exec("DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRow(res, "delete event", id)
}

// GetConfig returns the reminder config of an item
func (s *Store) GetConfig(itemID string) (*domain.RemindConfig, error) {
	var cfg domain.RemindConfig
	err := s.db.QueryRow(`
		SELECT id, item_id, config_name, reminding, remind_at, remind_interval, time_units
		FROM remind_configs WHERE item_id = ?
	`, itemID).Scan(&cfg.ID, &cfg.ItemID, &cfg.ConfigName, &cfg.Reminding, &cfg.RemindAt, &cfg.RemindInterval, &cfg.TimeUnits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get config %s: %w", itemID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return &cfg, nil
}

// SetConfig replaces an item's reminder config. The interval is stored as at
// least one.
func (s *Store) SetConfig(itemID string, cfg domain.RemindConfig) (*domain.RemindConfig, error) {
	if !cfg.TimeUnits.Valid() {
		return nil, fmt.Errorf("set config: invalid unit %q", cfg.TimeUnits)
	}
	if _, err := s.GetItem(itemID); err != nil {
		return nil, err
	}
	return upsertConfig(s.db, itemID, cfg)
}

func upsertConfig(q querier, itemID string, cfg domain.RemindConfig) (*domain.RemindConfig, error) {
	cfg.ItemID = itemID
	cfg.RemindInterval = cfg.Interval()
	cfg.RemindAt = cfg.RemindAt.UTC()
	if cfg.ConfigName == "" {
		cfg.ConfigName = "Default"
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}

	_, err := q.Exec(`
		INSERT INTO remind_configs (id, item_id, config_name, reminding, remind_at, remind_interval, time_units)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			config_name = excluded.config_name,
			reminding = excluded.reminding,
			remind_at = excluded.remind_at,
			remind_interval = excluded.remind_interval,
			time_units = excluded.time_units
	`, cfg.ID, itemID, cfg.ConfigName, cfg.Reminding, cfg.RemindAt, cfg.RemindInterval, string(cfg.TimeUnits))
	if err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}

	// the row keeps its original id on conflict
	if err := q.QueryRow("SELECT id FROM remind_configs WHERE item_id = ?", itemID).Scan(&cfg.ID); err != nil {
		return nil, fmt.Errorf("read config id: %w", err)
	}
	return &cfg, nil
}

// GetSettings returns the display settings, creating the defaults on first use
func (s *Store) GetSettings() (*domain.Settings, error) {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO settings (id, display_times_using) VALUES (?, ?)",
		settingsID, string(domain.DisplayTenths),
	)
	if err != nil {
		return nil, fmt.Errorf("init settings: %w", err)
	}

	var st domain.Settings
	err = s.db.QueryRow(
		"SELECT id, display_times_using FROM settings WHERE id = ?", settingsID,
	).Scan(&st.ID, &st.DisplayTimesUsing)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &st, nil
}

// SetDisplayMode stores how elapsed times are rendered
func (s *Store) SetDisplayMode(mode domain.DisplayMode) (*domain.Settings, error) {
	_, err := s.db.Exec(`
		INSERT INTO settings (id, display_times_using) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET display_times_using = excluded.display_times_using
	`, settingsID, string(mode))
	if err != nil {
		return nil, fmt.Errorf("set display mode: %w", err)
	}
	return s.GetSettings()
}

func requireRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, domain.ErrNotFound)
	}
	return nil
}
