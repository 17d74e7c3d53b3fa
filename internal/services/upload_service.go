package services

import (
	"context"
	"fmt"

	"battle-pollster/internal/storage"
	pollster_errors "battle-pollster/pkg/errors"

	"golang.org/x/sync/errgroup"
)

// UploadService sends poll images to the configured image host.
type UploadService struct {
	host storage.ImageHost
}

func NewUploadService(host storage.ImageHost) *UploadService {
	return &UploadService{host: host}
}

func (s *UploadService) Upload(ctx context.Context, img storage.Image) (string, error) {
	if s == nil || s.host == nil {
		return "", fmt.Errorf("no image host configured: %w", pollster_errors.ErrNotUploaded)
	}
	url, err := s.host.Upload(ctx, img)
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", pollster_errors.ErrNotUploaded
	}
	return url, nil
}

// UploadPair uploads both option images concurrently. If either fails the
// other is cancelled and no URL is returned.
func (s *UploadService) UploadPair(ctx context.Context, a, b storage.Image) (string, string, error) {
	var urlA, urlB string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.Upload(gctx, a)
		if err != nil {
			return fmt.Errorf("image A: %w", err)
		}
		urlA = u
		return nil
	})
	g.Go(func() error {
		u, err := s.Upload(gctx, b)
		if err != nil {
			return fmt.Errorf("image B: %w", err)
		}
		urlB = u
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return urlA, urlB, nil
}
