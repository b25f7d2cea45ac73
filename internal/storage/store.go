package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndexpress/nd-express/internal/config"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrEmptyFile         = errors.New("empty file")
)

// Receipt images wider or taller than this are scaled down before saving.
const maxDimension = 1600

const jpegQuality = 85

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Store writes receipt images under a base directory and hands back the
// public URL path they are served from.
type Store struct {
	config *config.StorageConfig
	log    *zap.Logger
}

func NewStore(cfg *config.StorageConfig, log *zap.Logger) *Store {
	return &Store{
		config: cfg,
		log:    log,
	}
}

type SavedFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Save validates, normalizes and persists one receipt image. JPEG and PNG
// uploads are bounded-resized and re-encoded as JPEG; webp is stored as-is.
func (s *Store) Save(originalName string, data []byte) (*SavedFile, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.config.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return nil, ErrUnsupportedFormat
	}

	if err := os.MkdirAll(s.config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	name := uniqueName(originalName, ext)

	var out []byte
	if ext == ".webp" {
		out = data
	} else {
		normalized, err := normalizeImage(data)
		if err != nil {
			return nil, err
		}
		out = normalized
		name = strings.TrimSuffix(name, ext) + ".jpg"
	}

	path := filepath.Join(s.config.BaseDir, name)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return nil, fmt.Errorf("write receipt: %w", err)
	}

	s.log.Info("receipt stored",
		zap.String("file", name),
		zap.Int("bytes", len(out)))

	return &SavedFile{
		Name: name,
		URL:  s.config.PublicPrefix + "/" + name,
		Size: int64(len(out)),
	}, nil
}

// Remove deletes a stored receipt by its saved name. Missing files are not an
// error.
func (s *Store) Remove(name string) error {
	cleaned := filepath.Base(name)
	err := os.Remove(filepath.Join(s.config.BaseDir, cleaned))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func normalizeImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrUnsupportedFormat
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func uniqueName(originalName, ext string) string {
	base := strings.TrimSuffix(filepath.Base(originalName), ext)
	base = unsafeChars.ReplaceAllString(base, "_")
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" {
		base = "receipt"
	}
	return uuid.NewString() + "_" + base + ext
}
