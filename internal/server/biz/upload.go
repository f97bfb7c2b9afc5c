package biz

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/db"
)

const defaultMaxUploadBytes = 10 << 20

// imageExtensions maps the accepted content types to the stored extension.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type UploadConfig struct {
	// Dir is the directory uploads are written to.
	Dir string `conf:"dir" yaml:"dir" json:"dir"`

	// BaseURL is prepended to stored file names to form the public URL.
	BaseURL string `conf:"base_url" yaml:"base_url" json:"base_url"`

	MaxSizeBytes int64 `conf:"max_size_bytes" yaml:"max_size_bytes" json:"max_size_bytes"`
}

type UploadServiceParams struct {
	fx.In

	Config UploadConfig
	DB     *db.DB
	FS     afero.Fs
}

func NewUploadService(params UploadServiceParams) (*UploadService, error) {
	cfg := params.Config
	if cfg.Dir == "" {
		cfg.Dir = "uploads"
	}

	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = defaultMaxUploadBytes
	}

	if err := params.FS.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &UploadService{
		config: cfg,
		db:     params.DB,
		fs:     params.FS,
	}, nil
}

type UploadService struct {
	config UploadConfig
	db     *db.DB
	fs     afero.Fs
}

type SaveImageInput struct {
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// SaveImage stores an uploaded image on disk under a generated name and
// records it. The file is written before the row so a failed transaction
// never leaves a dangling record; an orphaned file is cleaned up on error.
func (s *UploadService) SaveImage(ctx context.Context, input SaveImageInput) (*objects.UploadInfo, error) {
	ext, ok := imageExtensions[input.ContentType]
	if !ok {
		return nil, invalid("contentType", "must be an image type")
	}

	if input.SizeBytes <= 0 || input.SizeBytes > s.config.MaxSizeBytes {
		return nil, invalid("size", fmt.Sprintf("must be between 1 and %d bytes", s.config.MaxSizeBytes))
	}

	name := uuid.NewString() + ext
	filePath := path.Join(s.config.Dir, name)

	written, err := s.writeFile(filePath, input.Body, input.SizeBytes)
	if err != nil {
		return nil, err
	}

	ident, _ := contexts.GetIdentity(ctx)

	var uploadedBy any
	if ident != nil {
		if id, err := strconv.ParseInt(ident.SubjectID, 10, 64); err == nil {
			uploadedBy = id
		}
	}

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.UploadInfo, error) {
		var u objects.UploadInfo

		err := tx.QueryRowContext(ctx,
			`INSERT INTO uploads (path, content_type, size_bytes, uploaded_by)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, path, content_type, size_bytes, created_at`,
			filePath, input.ContentType, written, uploadedBy,
		).Scan(&u.ID, &u.Path, &u.ContentType, &u.SizeBytes, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert upload: %w", err)
		}

		return &u, nil
	})
	if err != nil {
		if removeErr := s.fs.Remove(filePath); removeErr != nil {
			log.Warn(ctx, "failed to remove orphaned upload", log.String("path", filePath), log.Cause(removeErr))
		}

		return nil, storeError(ctx, err)
	}

	info.URL = s.config.BaseURL + "/" + name

	log.Info(ctx, "image uploaded",
		log.Int64("upload_id", info.ID),
		log.Int64("size_bytes", written))

	return info, nil
}

// ListUploads returns stored uploads, newest first.
func (s *UploadService) ListUploads(ctx context.Context) ([]objects.UploadInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	uploads, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) ([]objects.UploadInfo, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, path, content_type, size_bytes, created_at
			 FROM uploads ORDER BY created_at DESC`,
		)
		if err != nil {
			return nil, fmt.Errorf("select uploads: %w", err)
		}
		defer rows.Close()

		var out []objects.UploadInfo

		for rows.Next() {
			var u objects.UploadInfo
			if err := rows.Scan(&u.ID, &u.Path, &u.ContentType, &u.SizeBytes, &u.CreatedAt); err != nil {
				return nil, err
			}

			u.URL = s.config.BaseURL + "/" + path.Base(u.Path)

			out = append(out, u)
		}

		return out, rows.Err()
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return uploads, nil
}

func (s *UploadService) writeFile(filePath string, body io.Reader, limit int64) (int64, error) {
	f, err := s.fs.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}

	// One extra byte detects bodies larger than the declared size.
	written, err := io.Copy(f, io.LimitReader(body, limit+1))

	closeErr := f.Close()

	switch {
	case err != nil:
		err = fmt.Errorf("write upload file: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("close upload file: %w", closeErr)
	case written > limit:
		err = invalid("size", "body exceeds declared size")
	}

	if err != nil {
		_ = s.fs.Remove(filePath)
		return 0, err
	}

	return written, nil
}

// NewUploadFS provides the filesystem uploads are written to.
func NewUploadFS() afero.Fs {
	return afero.NewOsFs()
}
