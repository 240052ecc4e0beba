package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
	"github.com/yourusername/mobit-catalog/internal/metrics"
)

// ImageUseCase product photo attachment
type ImageUseCase interface {
	// Attach stores uploaded images and appends their paths to the first row with code
	Attach(ctx context.Context, sessionID, code string, uploads []entity.Upload) (*entity.AttachResult, error)

	// Views resolves image refs for rendering
	Views(ctx context.Context, refs []string) []entity.ImageView

	// RowImage returns the path of a row's n-th image ref when the file exists
	RowImage(ctx context.Context, sessionID string, index, n int) (string, error)

	// SuggestDescription asks the description generator about a row's photos
	SuggestDescription(ctx context.Context, sessionID string, index int) (string, error)
}

type imageUseCase struct {
	sessions      repository.SessionRepository
	images        repository.ImageStore
	activity      repository.ActivityRepository
	generator     repository.DescriptionGenerator
	maxPerProduct int
	logger        *zap.Logger
}

// NewImageUseCase creates the image use case. generator may be nil.
func NewImageUseCase(
	sessions repository.SessionRepository,
	images repository.ImageStore,
	activity repository.ActivityRepository,
	generator repository.DescriptionGenerator,
	maxPerProduct int,
	logger *zap.Logger,
) ImageUseCase {
	return &imageUseCase{
		sessions:      sessions,
		images:        images,
		activity:      activity,
		generator:     generator,
		maxPerProduct: maxPerProduct,
		logger:        logger,
	}
}

// Attach appends to the row's existing refs in upload order. A file that
// fails validation or cannot be written is rejected without undoing the files
// saved before it and does not use up a slot. Once the row holds the
// per-product limit the remaining files are reported as ignored.
func (u *imageUseCase) Attach(ctx context.Context, sessionID, code string, uploads []entity.Upload) (*entity.AttachResult, error) {
	if len(uploads) == 0 {
		return nil, entity.ErrNoUploads
	}

	result := &entity.AttachResult{Code: code}
	err := u.sessions.Update(ctx, sessionID, func(s *entity.Session) error {
		if strings.TrimSpace(code) == "" {
			return nil
		}
		index := s.Catalog.IndexOf(code)
		if index < 0 {
			return nil
		}
		result.Found = true
		result.Index = index
		row := &s.Catalog.Products[index]

		for _, up := range uploads {
			if len(row.ImageRefs) >= u.maxPerProduct {
				result.Ignored = append(result.Ignored, up.Filename)
				continue
			}
			path, err := u.store(ctx, code, len(row.ImageRefs)+1, up)
			if err != nil {
				u.logger.Warn("image rejected",
					zap.String("code", code),
					zap.String("file", up.Filename),
					zap.Error(err))
				result.Rejected = append(result.Rejected, entity.UploadIssue{Filename: up.Filename, Reason: err.Error()})
				continue
			}
			row.ImageRefs = append(row.ImageRefs, path)
			result.Saved = append(result.Saved, path)
		}

		if len(result.Saved) > 0 {
			s.Dirty = true
		}
		result.ImageRefs = append([]string(nil), row.ImageRefs...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordUploads(len(result.Saved), len(result.Rejected), len(result.Ignored))
	if len(result.Saved) > 0 {
		logActivity(ctx, u.activity, u.logger, sessionID, "upload_images",
			fmt.Sprintf("Attached %d image(s) to %s", len(result.Saved), code))
	}
	return result, nil
}

func (u *imageUseCase) store(ctx context.Context, code string, ordinal int, up entity.Upload) (string, error) {
	if _, err := checkImage(up.Filename, up.Data); err != nil {
		return "", err
	}
	path, err := u.images.Put(ctx, imageFileName(code, ordinal, up.Filename), up.Data)
	if err != nil {
		return "", err
	}
	if _, err := entity.EncodeImageRefs([]string{path}); err != nil {
		return "", err
	}
	return path, nil
}

// Views resolves image refs for rendering
func (u *imageUseCase) Views(ctx context.Context, refs []string) []entity.ImageView {
	views := make([]entity.ImageView, 0, len(refs))
	for _, ref := range refs {
		views = append(views, u.images.Describe(ctx, ref))
	}
	return views
}

// RowImage returns the path of a row's n-th image ref. Only refs listed in
// the session's catalog resolve, and only PNG or JPEG files.
func (u *imageUseCase) RowImage(ctx context.Context, sessionID string, index, n int) (string, error) {
	session, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if err := checkIndex(session, index); err != nil {
		return "", err
	}
	refs := session.Catalog.Products[index].ImageRefs
	if n < 0 || n >= len(refs) {
		return "", fmt.Errorf("row %d image %d: %w", index+1, n+1, entity.ErrImageNotFound)
	}

	path := refs[n]
	if _, ok := allowedImageTypes[strings.ToLower(filepath.Ext(path))]; !ok {
		return "", fmt.Errorf("%w: %s", entity.ErrUnsupportedImage, path)
	}
	if !u.images.Describe(ctx, path).Exists {
		return "", fmt.Errorf("%w: %s", entity.ErrImageNotFound, path)
	}
	return path, nil
}

// SuggestDescription returns a generated description for a row. Missing or
// unreadable images are skipped.
func (u *imageUseCase) SuggestDescription(ctx context.Context, sessionID string, index int) (string, error) {
	if u.generator == nil {
		return "", fmt.Errorf("description suggestions: %w", entity.ErrNotConfigured)
	}

	session, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if err := checkIndex(session, index); err != nil {
		return "", err
	}
	product := session.Catalog.Products[index]

	var blobs []repository.ImageBlob
	for _, ref := range product.ImageRefs {
		data, err := u.images.Read(ctx, ref)
		if err != nil {
			u.logger.Debug("skipping unreadable image", zap.String("path", ref), zap.Error(err))
			continue
		}
		format, err := checkImage(ref, data)
		if err != nil {
			continue
		}
		blobs = append(blobs, repository.ImageBlob{Format: format, Data: data})
	}
	if len(blobs) == 0 {
		return "", errors.New("row has no readable PNG or JPEG images")
	}

	return u.generator.DescribeProduct(ctx, product.Code, blobs)
}
