package handler

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"memnotes/internal/storage"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"
	"github.com/studio-b12/gowebdav"
	"go.uber.org/zap"
)

const backupPrefix = "memnotes_backup_"

// createBackupArchive creates a tar.gz archive containing the persisted
// collections and the media directory
func (h *Handler) createBackupArchive() (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	gzWriter := gzip.NewWriter(buf)
	tarWriter := tar.NewWriter(gzWriter)

	dataDir := h.storage.DataDir()
	fs := h.storage.Fs()

	// Helper function to add a file to tar archive
	addFile := func(path string, name string) error {
		fileInfo, err := h.storage.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		header, err := tar.FileInfoHeader(fileInfo, "")
		if err != nil {
			return fmt.Errorf("failed to create tar header: %w", err)
		}
		header.Name = name

		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header: %w", err)
		}

		if fileInfo.IsDir() {
			return nil
		}

		file, err := h.storage.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer file.Close()

		if _, err := io.Copy(tarWriter, file); err != nil {
			return fmt.Errorf("failed to copy file data: %w", err)
		}

		return nil
	}

	// Add collection keys
	for _, key := range []string{"notes.json", "categories.json"} {
		path := filepath.Join(dataDir, key)
		if exists, _ := h.storage.Exists(path); exists {
			if err := addFile(path, key); err != nil {
				return nil, err
			}
		}
	}

	// Add media directory recursively
	mediaDir := filepath.Join(dataDir, "media")
	exists, _ := h.storage.Exists(mediaDir)
	if exists {
		err := afero.Walk(fs, mediaDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Get relative path from data directory
			relPath, err := filepath.Rel(dataDir, path)
			if err != nil {
				return err
			}

			return addFile(path, relPath)
		})

		if err != nil {
			return nil, fmt.Errorf("failed to add media directory: %w", err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return nil, err
	}
	if err := gzWriter.Close(); err != nil {
		return nil, err
	}

	return buf, nil
}

// extractBackupArchive extracts a tar.gz archive to the data directory
func (h *Handler) extractBackupArchive(data []byte) error {
	buf := bytes.NewReader(data)
	gzReader, err := gzip.NewReader(buf)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	dataDir := h.storage.DataDir()

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		target := filepath.Join(dataDir, header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := h.storage.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			file, err := h.storage.Create(target)
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}

			if _, err := io.Copy(file, tarReader); err != nil {
				file.Close()
				return fmt.Errorf("failed to write file: %w", err)
			}
			file.Close()
		}
	}

	return nil
}

// preRestoreSnapshot saves the current data as a local safety archive
// before a restore overwrites it
func (h *Handler) preRestoreSnapshot() {
	archive, err := h.createBackupArchive()
	if err != nil {
		zap.L().Warn("pre-restore snapshot failed", zap.Error(err))
		return
	}
	filename := fmt.Sprintf("memnotes_pre_restore_backup_%s.tar.gz", time.Now().Format("20060102_150405"))
	path := filepath.Join(h.storage.DataDir(), filename)
	if err := h.storage.WriteFile(path, archive.Bytes(), 0644); err != nil {
		zap.L().Warn("pre-restore snapshot failed", zap.Error(err))
	}
}

// GetBackupConfig retrieves the backup configuration
func (h *Handler) GetBackupConfig(c echo.Context) error {
	settings, err := h.storage.LoadSettings()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, settings.Backup)
}

// UpdateBackupConfig updates the backup configuration
func (h *Handler) UpdateBackupConfig(c echo.Context) error {
	var req struct {
		WebDAVURL         *string `json:"webdav_url"`
		WebDAVUser        *string `json:"webdav_user"`
		WebDAVPassword    *string `json:"webdav_password"`
		S3Endpoint        *string `json:"s3_endpoint"`
		S3Region          *string `json:"s3_region"`
		S3Bucket          *string `json:"s3_bucket"`
		S3AccessKey       *string `json:"s3_access_key"`
		S3SecretKey       *string `json:"s3_secret_key"`
		AutoBackupEnabled *bool   `json:"auto_backup_enabled"`
		BackupSchedule    *string `json:"backup_schedule"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	settings, err := h.storage.LoadSettings()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	cfg := &settings.Backup
	if req.WebDAVURL != nil {
		cfg.WebDAVURL = *req.WebDAVURL
	}
	if req.WebDAVUser != nil {
		cfg.WebDAVUser = *req.WebDAVUser
	}
	if req.WebDAVPassword != nil {
		cfg.WebDAVPassword = *req.WebDAVPassword
	}
	if req.S3Endpoint != nil {
		cfg.S3Endpoint = *req.S3Endpoint
	}
	if req.S3Region != nil {
		cfg.S3Region = *req.S3Region
	}
	if req.S3Bucket != nil {
		cfg.S3Bucket = *req.S3Bucket
	}
	if req.S3AccessKey != nil {
		cfg.S3AccessKey = *req.S3AccessKey
	}
	if req.S3SecretKey != nil {
		cfg.S3SecretKey = *req.S3SecretKey
	}
	if req.AutoBackupEnabled != nil {
		cfg.AutoBackupEnabled = *req.AutoBackupEnabled
	}
	if req.BackupSchedule != nil {
		cfg.BackupSchedule = *req.BackupSchedule
	}

	if err := h.storage.SaveSettings(settings); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	// Re-arm the auto backup job with the new schedule
	h.StartAutoBackup()

	return c.JSON(http.StatusOK, settings.Backup)
}

func (h *Handler) markBackupDone() {
	settings, err := h.storage.LoadSettings()
	if err != nil {
		return
	}
	now := time.Now()
	settings.Backup.LastBackupAt = &now
	if err := h.storage.SaveSettings(settings); err != nil {
		zap.L().Warn("failed to record backup time", zap.Error(err))
	}
}

func (h *Handler) backupToWebDAV(cfg storage.BackupConfig) (string, error) {
	if cfg.WebDAVURL == "" {
		return "", fmt.Errorf("WebDAV URL not configured")
	}

	archive, err := h.createBackupArchive()
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	client := gowebdav.NewClient(cfg.WebDAVURL, cfg.WebDAVUser, cfg.WebDAVPassword)
	filename := fmt.Sprintf("%s%s.tar.gz", backupPrefix, time.Now().Format("20060102_150405"))

	if err := client.Write(filename, archive.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("webdav upload failed: %w", err)
	}

	h.markBackupDone()
	return filename, nil
}

func (h *Handler) s3Service(cfg storage.BackupConfig) (*s3.S3, error) {
	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Endpoint:         aws.String(cfg.S3Endpoint),
		Region:           aws.String(cfg.S3Region),
		S3ForcePathStyle: aws.Bool(true),
	}

	sess, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}
	return s3.New(sess), nil
}

func (h *Handler) backupToS3(cfg storage.BackupConfig) (string, error) {
	if cfg.S3Endpoint == "" || cfg.S3Bucket == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return "", fmt.Errorf("S3 configuration incomplete")
	}

	archive, err := h.createBackupArchive()
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	svc, err := h.s3Service(cfg)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s%s.tar.gz", backupPrefix, time.Now().Format("20060102_150405"))

	_, err = svc.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(cfg.S3Bucket),
		Key:    aws.String(filename),
		Body:   bytes.NewReader(archive.Bytes()),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	h.markBackupDone()
	return filename, nil
}

// BackupWebDAV backs up the data directory to WebDAV
func (h *Handler) BackupWebDAV(c echo.Context) error {
	settings, err := h.storage.LoadSettings()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	filename, err := h.backupToWebDAV(settings.Backup)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "backup successful", "file": filename})
}

// BackupS3 backs up the data directory to S3
func (h *Handler) BackupS3(c echo.Context) error {
	settings, err := h.storage.LoadSettings()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	filename, err := h.backupToS3(settings.Backup)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "backup successful", "file": filename})
}

// RestoreWebDAV restores the data directory from a WebDAV backup
func (h *Handler) RestoreWebDAV(c echo.Context) error {
	var req struct {
		Filename string `json:"filename"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	settings, err := h.storage.LoadSettings()
	if err != nil || settings.Backup.WebDAVURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "backup not configured"})
	}

	cfg := settings.Backup
	client := gowebdav.NewClient(cfg.WebDAVURL, cfg.WebDAVUser, cfg.WebDAVPassword)

	data, err := client.Read(req.Filename)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to download: %v", err)})
	}

	h.preRestoreSnapshot()

	if err := h.extractBackupArchive(data); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to extract backup: %v", err)})
	}

	// Swap the restored collections into memory
	if err := h.store.Reload(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to reload collections: %v", err)})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "restore successful"})
}

// RestoreS3 restores the data directory from an S3 backup
func (h *Handler) RestoreS3(c echo.Context) error {
	var req struct {
		Filename string `json:"filename"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	settings, err := h.storage.LoadSettings()
	if err != nil || settings.Backup.S3Bucket == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "backup not configured"})
	}

	svc, err := h.s3Service(settings.Backup)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	result, err := svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(settings.Backup.S3Bucket),
		Key:    aws.String(req.Filename),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to download: %v", err)})
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read data"})
	}

	h.preRestoreSnapshot()

	if err := h.extractBackupArchive(data); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to extract backup: %v", err)})
	}

	if err := h.store.Reload(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to reload collections: %v", err)})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "restore successful"})
}

// ListWebDAVBackups lists backup archives on the WebDAV server
func (h *Handler) ListWebDAVBackups(c echo.Context) error {
	settings, err := h.storage.LoadSettings()
	if err != nil || settings.Backup.WebDAVURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "backup not configured"})
	}

	cfg := settings.Backup
	client := gowebdav.NewClient(cfg.WebDAVURL, cfg.WebDAVUser, cfg.WebDAVPassword)

	files, err := client.ReadDir("/")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to list backups: %v", err)})
	}

	backups := []map[string]interface{}{}
	for _, f := range files {
		if f.IsDir() || !strings.HasPrefix(f.Name(), backupPrefix) {
			continue
		}
		backups = append(backups, map[string]interface{}{
			"filename": f.Name(),
			"size":     f.Size(),
			"modified": f.ModTime(),
		})
	}

	return c.JSON(http.StatusOK, backups)
}

// ListS3Backups lists backup archives in the S3 bucket
func (h *Handler) ListS3Backups(c echo.Context) error {
	settings, err := h.storage.LoadSettings()
	if err != nil || settings.Backup.S3Bucket == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "backup not configured"})
	}

	svc, err := h.s3Service(settings.Backup)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	result, err := svc.ListObjectsV2(&s3.ListObjectsV2Input{
		Bucket: aws.String(settings.Backup.S3Bucket),
		Prefix: aws.String(backupPrefix),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to list backups: %v", err)})
	}

	backups := []map[string]interface{}{}
	for _, obj := range result.Contents {
		backups = append(backups, map[string]interface{}{
			"filename": aws.StringValue(obj.Key),
			"size":     aws.Int64Value(obj.Size),
			"modified": aws.TimeValue(obj.LastModified),
		})
	}

	return c.JSON(http.StatusOK, backups)
}

// WipeData clears both collections, cancels all scheduled notifications
// and removes the persisted keys
func (h *Handler) WipeData(c echo.Context) error {
	if err := h.store.Wipe(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "all data cleared"})
}

// StartAutoBackup (re)schedules the automatic backup job from the
// configured cron expression. Call again after the config changes.
func (h *Handler) StartAutoBackup() {
	if h.backup != nil {
		h.backup.Stop()
		h.backup = nil
	}

	settings, err := h.storage.LoadSettings()
	if err != nil {
		zap.L().Warn("auto backup disabled, cannot read settings", zap.Error(err))
		return
	}
	cfg := settings.Backup
	if !cfg.AutoBackupEnabled {
		return
	}

	schedule := cfg.BackupSchedule
	if schedule == "" {
		schedule = "0 3 * * *" // daily at 03:00
	}

	runner := cron.New()
	_, err = runner.AddFunc(schedule, func() {
		settings, err := h.storage.LoadSettings()
		if err != nil {
			zap.L().Error("auto backup skipped", zap.Error(err))
			return
		}
		cfg := settings.Backup
		var file string
		switch {
		case cfg.WebDAVURL != "":
			file, err = h.backupToWebDAV(cfg)
		case cfg.S3Bucket != "":
			file, err = h.backupToS3(cfg)
		default:
			zap.L().Warn("auto backup enabled but no target configured")
			return
		}
		if err != nil {
			zap.L().Error("auto backup failed", zap.Error(err))
			return
		}
		zap.L().Info("auto backup completed", zap.String("file", file))
	})
	if err != nil {
		zap.L().Error("invalid backup schedule", zap.String("schedule", schedule), zap.Error(err))
		return
	}

	runner.Start()
	h.backup = runner
	zap.L().Info("auto backup scheduled", zap.String("schedule", schedule))
}
