package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/database"
)

// retainedBackups is how many backup archives are kept, locally and remotely.
const retainedBackups = 14

// BackupService creates consistent snapshots of the trade-event ledger
// (SQLite database and/or JSONL log) and optionally uploads them to an
// S3-compatible store.
type BackupService struct {
	ledgerDB *database.DB // nil for jsonl-only deployments
	logPath  string       // "" for sqlite-only deployments
	dataDir  string
	s3       *S3Client // nil disables off-site upload
	log      zerolog.Logger
}

// FileMetadata describes one file in a backup archive.
type FileMetadata struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// Metadata describes a backup archive.
type Metadata struct {
	Timestamp time.Time      `json:"timestamp"`
	Files     []FileMetadata `json:"files"`
}

// NewBackupService creates a new backup service
func NewBackupService(ledgerDB *database.DB, logPath, dataDir string, s3 *S3Client, log zerolog.Logger) *BackupService {
	return &BackupService{
		ledgerDB: ledgerDB,
		logPath:  logPath,
		dataDir:  dataDir,
		s3:       s3,
		log:      log.With().Str("service", "backup").Logger(),
	}
}

// CreateBackup snapshots the ledger into a gzip tarball under
// <dataDir>/backups and uploads it when S3 is configured. Returns the
// local archive path.
func (s *BackupService) CreateBackup(ctx context.Context) (string, error) {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	meta := Metadata{Timestamp: startTime.UTC()}

	if s.ledgerDB != nil {
		dbCopy := filepath.Join(stagingDir, "ledger.db")
		if err := s.snapshotDatabase(dbCopy); err != nil {
			return "", err
		}
		fm, err := fileMetadata(dbCopy)
		if err != nil {
			return "", err
		}
		meta.Files = append(meta.Files, fm)
	}

	if s.logPath != "" {
		if _, err := os.Stat(s.logPath); err == nil {
			logCopy := filepath.Join(stagingDir, filepath.Base(s.logPath))
			if err := copyFile(s.logPath, logCopy); err != nil {
				return "", fmt.Errorf("failed to copy event log: %w", err)
			}
			fm, err := fileMetadata(logCopy)
			if err != nil {
				return "", err
			}
			meta.Files = append(meta.Files, fm)
		}
	}

	if len(meta.Files) == 0 {
		return "", fmt.Errorf("nothing to back up")
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize backup metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stagingDir, "metadata.json"), metaJSON, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup metadata: %w", err)
	}

	backupsDir := filepath.Join(s.dataDir, "backups")
	if err := os.MkdirAll(backupsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backups directory: %w", err)
	}

	archiveName := fmt.Sprintf("trueedge-%s.tar.gz", startTime.UTC().Format("20060102-150405"))
	archivePath := filepath.Join(backupsDir, archiveName)
	if err := createArchive(stagingDir, archivePath); err != nil {
		return "", err
	}

	if s.s3 != nil {
		if err := s.s3.Upload(ctx, "backups/"+archiveName, archivePath); err != nil {
			// The local archive is still valid; report the upload failure
			s.log.Error().Err(err).Msg("Off-site backup upload failed")
		} else if err := s.pruneRemote(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Failed to prune old remote backups")
		}
	}

	if err := s.pruneLocal(backupsDir); err != nil {
		s.log.Warn().Err(err).Msg("Failed to prune old local backups")
	}

	s.log.Info().
		Str("archive", archivePath).
		Dur("elapsed", time.Since(startTime)).
		Msg("Backup completed")

	return archivePath, nil
}

// snapshotDatabase writes a consistent copy of the ledger database using
// VACUUM INTO, which is safe while the database is in use.
func (s *BackupService) snapshotDatabase(destPath string) error {
	if _, err := s.ledgerDB.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("failed to snapshot ledger database: %w", err)
	}
	return nil
}

// pruneLocal removes local archives beyond the retention count.
func (s *BackupService) pruneLocal(backupsDir string) error {
	entries, err := os.ReadDir(backupsDir)
	if err != nil {
		return err
	}

	var archives []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".gz" {
			archives = append(archives, entry.Name())
		}
	}
	if len(archives) <= retainedBackups {
		return nil
	}

	// Timestamped names sort chronologically
	for i := 0; i < len(archives)-retainedBackups; i++ {
		path := filepath.Join(backupsDir, archives[i])
		if err := os.Remove(path); err != nil {
			return err
		}
		s.log.Debug().Str("archive", archives[i]).Msg("Removed old local backup")
	}

	return nil
}

// pruneRemote removes remote archives beyond the retention count.
func (s *BackupService) pruneRemote(ctx context.Context) error {
	objects, err := s.s3.List(ctx, "backups/")
	if err != nil {
		return err
	}
	for i := retainedBackups; i < len(objects); i++ {
		if err := s.s3.Delete(ctx, objects[i].Key); err != nil {
			return err
		}
		s.log.Debug().Str("key", objects[i].Key).Msg("Removed old remote backup")
	}
	return nil
}

// createArchive writes the staging directory contents into a gzip tarball.
func createArchive(srcDir, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	defer gw.Close()

	tw := tar.NewWriter(gw)
	defer tw.Close()

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("failed to read staging directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(srcDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("failed to build tar header for %s: %w", entry.Name(), err)
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write tar header for %s: %w", entry.Name(), err)
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", entry.Name(), err)
		}
		if _, err := io.Copy(tw, f); err != nil {
			f.Close()
			return fmt.Errorf("failed to archive %s: %w", entry.Name(), err)
		}
		f.Close()
	}

	return nil
}

// fileMetadata captures size and sha256 checksum for one staged file.
func fileMetadata(path string) (FileMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return FileMetadata{}, fmt.Errorf("failed to checksum %s: %w", path, err)
	}

	return FileMetadata{
		Name:      filepath.Base(path),
		SizeBytes: info.Size(),
		Checksum:  fmt.Sprintf("%x", h.Sum(nil)),
	}, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
