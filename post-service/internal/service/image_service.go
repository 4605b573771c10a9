package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/storage"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/domain"
)

const imageKeyPrefix = "posts"

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type imageServiceImpl struct {
	storage storage.Storage
	expiry  time.Duration
	maxSize int64
}

// NewImageService creates an image service on st.
func NewImageService(st storage.Storage, expiry time.Duration, maxSize int64) ImageService {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &imageServiceImpl{storage: st, expiry: expiry, maxSize: maxSize}
}

// PresignUpload picks a fresh key under the user's prefix and returns where
// to upload it.
func (s *imageServiceImpl) PresignUpload(ctx context.Context, req *domain.PresignImageRequest) (*domain.PresignImageResponse, error) {
	ext, ok := imageExtensions[strings.ToLower(req.ContentType)]
	if !ok {
		return nil, errs.Newf(errs.ErrInvalidOperation, "unsupported content type: %s", req.ContentType)
	}

	key := fmt.Sprintf("%s/%d/%s%s", imageKeyPrefix, req.UserID, uuid.NewString(), ext)
	uploadURL, err := s.storage.GetUploadURL(ctx, key, req.ContentType, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("generate upload url: %w", err)
	}

	return &domain.PresignImageResponse{
		UploadURL: uploadURL,
		Key:       key,
		ImageURL:  s.storage.ObjectURL(key),
		ExpiresIn: int(s.expiry.Seconds()),
	}, nil
}

func (s *imageServiceImpl) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !strings.HasPrefix(key, imageKeyPrefix+"/") {
		return errs.New(errs.ErrInvalidOperation, "invalid image key")
	}
	if _, ok := imageExtensions[strings.ToLower(contentType)]; !ok {
		return errs.Newf(errs.ErrInvalidOperation, "unsupported content type: %s", contentType)
	}
	if s.maxSize > 0 {
		if size > s.maxSize {
			return errs.New(errs.ErrInvalidOperation, "image too large")
		}
		r = io.LimitReader(r, s.maxSize)
	}
	return s.storage.Write(ctx, key, r, size, contentType)
}
