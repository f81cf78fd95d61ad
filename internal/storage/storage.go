package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"memnotes/internal/model"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Fixed logical keys for the persisted collections. Each key is a JSON
// file under the data directory holding the whole collection; saves
// overwrite the previous value entirely.
const (
	notesKey      = "notes.json"
	categoriesKey = "categories.json"
	settingsKey   = "settings.json"
)

// BackupConfig holds the remote backup targets and schedule.
type BackupConfig struct {
	WebDAVURL         string     `json:"webdav_url"`
	WebDAVUser        string     `json:"webdav_user"`
	WebDAVPassword    string     `json:"webdav_password"`
	S3Endpoint        string     `json:"s3_endpoint"`
	S3Region          string     `json:"s3_region"`
	S3Bucket          string     `json:"s3_bucket"`
	S3AccessKey       string     `json:"s3_access_key"`
	S3SecretKey       string     `json:"s3_secret_key"`
	AutoBackupEnabled bool       `json:"auto_backup_enabled"`
	BackupSchedule    string     `json:"backup_schedule"`
	LastBackupAt      *time.Time `json:"last_backup_at,omitempty"`
}

// Settings is everything persisted outside the two collections: the
// access credential hash and the backup configuration.
type Settings struct {
	AccessHash string       `json:"access_hash"`
	Backup     BackupConfig `json:"backup"`
}

// Store is the codec between the in-memory collections and the durable
// key-value layout on disk. It owns nothing: callers decide what to do
// with read/write failures.
type Store struct {
	fs      afero.Fs
	dataDir string
}

// New creates a Store over the OS filesystem rooted at dataDir.
// If dataDir is empty it falls back to MEMNOTES_DATA_DIR or "data".
func New(dataDir string) *Store {
	if dataDir == "" {
		dataDir = os.Getenv("MEMNOTES_DATA_DIR")
		if dataDir == "" {
			dataDir = "data"
		}
	}

	fs := afero.NewOsFs()
	if err := fs.MkdirAll(dataDir, 0755); err != nil {
		// Fall back to memory so the app can still run; nothing will
		// survive a restart.
		zap.L().Warn("data directory unavailable, falling back to in-memory storage",
			zap.String("data_dir", dataDir),
			zap.Error(err),
		)
		fs = afero.NewMemMapFs()
	}

	return &Store{fs: fs, dataDir: dataDir}
}

// NewMemory creates a Store backed by memory (useful for testing).
func NewMemory() *Store {
	return &Store{fs: afero.NewMemMapFs(), dataDir: "data"}
}

// DataDir returns the base data directory path.
func (s *Store) DataDir() string {
	return s.dataDir
}

// Fs returns the underlying afero.Fs for advanced operations.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.dataDir, key)
}

func (s *Store) saveJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.WriteFile(s.keyPath(key), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// loadJSON reads the key into v. A missing key is not an error; found
// reports whether anything was read.
func (s *Store) loadJSON(key string, v any) (found bool, err error) {
	data, err := afero.ReadFile(s.fs, s.keyPath(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveNotes persists the whole notes collection under the notes key.
func (s *Store) SaveNotes(notes []model.Note) error {
	if notes == nil {
		notes = []model.Note{}
	}
	return s.saveJSON(notesKey, notes)
}

// LoadNotes reads the notes collection. A missing key yields an empty
// collection; date-typed fields come back as typed times because the
// collection is decoded straight into the model.
func (s *Store) LoadNotes() ([]model.Note, error) {
	var notes []model.Note
	found, err := s.loadJSON(notesKey, &notes)
	if err != nil {
		return nil, err
	}
	if !found || notes == nil {
		return []model.Note{}, nil
	}
	return notes, nil
}

// SaveCategories persists the whole categories collection.
func (s *Store) SaveCategories(categories []model.Category) error {
	if categories == nil {
		categories = []model.Category{}
	}
	return s.saveJSON(categoriesKey, categories)
}

// LoadCategories reads the categories collection, returning defaults
// when the key has never been written.
func (s *Store) LoadCategories(defaults []model.Category) ([]model.Category, error) {
	var categories []model.Category
	found, err := s.loadJSON(categoriesKey, &categories)
	if err != nil {
		return nil, err
	}
	if !found || categories == nil {
		return defaults, nil
	}
	return categories, nil
}

// SaveSettings persists the settings key.
func (s *Store) SaveSettings(settings Settings) error {
	return s.saveJSON(settingsKey, settings)
}

// LoadSettings reads the settings key, returning zero settings when it
// has never been written.
func (s *Store) LoadSettings() (Settings, error) {
	var settings Settings
	if _, err := s.loadJSON(settingsKey, &settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Wipe removes both collection keys. Settings survive a wipe.
func (s *Store) Wipe() error {
	for _, key := range []string{notesKey, categoriesKey} {
		if err := s.fs.Remove(s.keyPath(key)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}

// MediaDir returns the media directory path for a subdirectory,
// creating it if needed.
func (s *Store) MediaDir(subdir string) string {
	dir := filepath.Join(s.dataDir, "media", subdir)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return filepath.Join("media", subdir)
	}
	return dir
}

// MediaURL returns the URL path a stored media file is served under.
func (s *Store) MediaURL(subdir, filename string) string {
	return "/media/" + subdir + "/" + filename
}

// SaveMedia streams an uploaded file to the filesystem.
func (s *Store) SaveMedia(reader io.Reader, path string) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}
	dst, err := s.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, reader); err != nil {
		return fmt.Errorf("save media file: %w", err)
	}
	return nil
}

// WriteFile writes data to a file, creating parent directories.
func (s *Store) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return afero.WriteFile(s.fs, path, data, perm)
}

// ReadFile reads data from a file.
func (s *Store) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// Open opens a file for reading.
func (s *Store) Open(path string) (afero.File, error) {
	return s.fs.Open(path)
}

// Create creates a new file, creating parent directories.
func (s *Store) Create(path string) (afero.File, error) {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	return s.fs.Create(path)
}

// Remove removes a file.
func (s *Store) Remove(path string) error {
	return s.fs.Remove(path)
}

// Exists checks if a file or directory exists.
func (s *Store) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

// Stat returns file info.
func (s *Store) Stat(path string) (os.FileInfo, error) {
	return s.fs.Stat(path)
}

// MkdirAll creates a directory and all parent directories.
func (s *Store) MkdirAll(path string, perm os.FileMode) error {
	return s.fs.MkdirAll(path, perm)
}
