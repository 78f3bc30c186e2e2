package store

import (
	"database/sql"
	"errors"
	"strconv"
)

// KeyLastCamera stores the camera index chosen in the previous run.
const KeyLastCamera = "last_camera"

// SettingsRepository stores application settings as key-value pairs.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Set inserts or replaces key.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// LastCamera returns the remembered camera index.
func (r *SettingsRepository) LastCamera() (int, bool) {
	v, err := r.Get(KeyLastCamera)
	if err != nil {
		return 0, false
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (r *SettingsRepository) SetLastCamera(id int) error {
	return r.Set(KeyLastCamera, strconv.Itoa(id))
}
