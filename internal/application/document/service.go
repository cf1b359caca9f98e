package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/taara-api/internal/domain"
	s3infra "github.com/taara-api/internal/infrastructure/s3"
	"github.com/taara-api/internal/pkg/id"
)

const defaultURLTTL = 15 * time.Minute

type UploadInput struct {
	Reader     io.Reader
	Filename   string
	Size       int64
	UploaderID string
}

// Service stores identity and residence documents referenced by request payloads.
type Service interface {
	Upload(ctx context.Context, in UploadInput) (*domain.Document, error)
	// Get returns the metadata row and a short-lived download URL.
	Get(ctx context.Context, documentID string, actor domain.Actor) (*domain.Document, string, error)
	ListMine(ctx context.Context, userID string) ([]domain.Document, error)
	Delete(ctx context.Context, documentID string, actor domain.Actor) error
}

type blobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type documentStore interface {
	Put(ctx context.Context, d *domain.Document) error
	Get(ctx context.Context, documentID string) (*domain.Document, error)
	ListByUploader(ctx context.Context, userID string) ([]domain.Document, error)
	SoftDelete(ctx context.Context, documentID string) error
}

type service struct {
	blobs  blobStore
	repo   documentStore
	urlTTL time.Duration
}

type ServiceDeps struct {
	Blobs        blobStore
	DocumentRepo documentStore
	URLTTL       time.Duration
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.URLTTL
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	return &service{blobs: deps.Blobs, repo: deps.DocumentRepo, urlTTL: ttl}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*domain.Document, error) {
	safeName := sanitizeFilename(in.Filename)
	contentType, ok := s3infra.ContentType(safeName)
	if !ok {
		return nil, fmt.Errorf("unsupported document type %q: %w", path.Ext(safeName), domain.ErrBadRequest)
	}
	if in.Size <= 0 {
		return nil, fmt.Errorf("empty upload: %w", domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	docID := id.NewAt(now)
	key := fmt.Sprintf("documents/%s/%s%s", in.UploaderID, docID, strings.ToLower(path.Ext(safeName)))
	hasher := sha256.New()
	if _, err := s.blobs.Put(ctx, key, io.TeeReader(in.Reader, hasher), in.Size, contentType); err != nil {
		return nil, err
	}
	d := &domain.Document{
		DocumentID:       docID,
		Object:           key,
		Size:             in.Size,
		Type:             contentType,
		Name:             safeName,
		Hash:             hex.EncodeToString(hasher.Sum(nil)),
		UploadedByUserID: in.UploaderID,
		Enable:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Put(ctx, d); err != nil {
		// orphaned object
		_ = s.blobs.Delete(context.WithoutCancel(ctx), key)
		return nil, err
	}
	return d, nil
}

func (s *service) Get(ctx context.Context, documentID string, actor domain.Actor) (*domain.Document, string, error) {
	d, err := s.visible(ctx, documentID, actor)
	if err != nil {
		return nil, "", err
	}
	url, err := s.blobs.PresignedURL(ctx, d.Object, s.urlTTL)
	if err != nil {
		return nil, "", err
	}
	return d, url, nil
}

func (s *service) ListMine(ctx context.Context, userID string) ([]domain.Document, error) {
	return s.repo.ListByUploader(ctx, userID)
}

// Delete disables the row; the object stays in the bucket for audit.
func (s *service) Delete(ctx context.Context, documentID string, actor domain.Actor) error {
	if _, err := s.visible(ctx, documentID, actor); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, documentID)
}

// visible hides other users' documents behind NotFound unless the actor is an admin.
func (s *service) visible(ctx context.Context, documentID string, actor domain.Actor) (*domain.Document, error) {
	d, err := s.repo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if d.UploadedByUserID != actor.UserID && !actor.IsAdmin() {
		return nil, &domain.NotFoundError{Entity: "document", ID: documentID}
	}
	return d, nil
}

// sanitizeFilename strips directory components and keeps only alphanumerics, dot, dash and underscore.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "_"
}
