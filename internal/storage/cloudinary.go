package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	pollster_errors "battle-pollster/pkg/errors"
)

type CloudinaryConfig struct {
	UploadURL    string
	UploadPreset string
	Timeout      time.Duration
}

// CloudinaryHost posts images as unsigned multipart uploads and keeps the
// secure_url of the stored asset.
type CloudinaryHost struct {
	cfg  CloudinaryConfig
	http *http.Client
}

func NewCloudinaryHost(cfg CloudinaryConfig) (*CloudinaryHost, error) {
	if cfg.UploadURL == "" {
		return nil, fmt.Errorf("cloudinary upload url is required")
	}
	if cfg.UploadPreset == "" {
		cfg.UploadPreset = "upload_file"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CloudinaryHost{cfg: cfg, http: &http.Client{Timeout: timeout}}, nil
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
}

func (h *CloudinaryHost) Upload(ctx context.Context, img Image) (string, error) {
	if img.Body == nil {
		return "", pollster_errors.ErrNotUploaded
	}
	if err := ValidateContentType(img.ContentType); err != nil {
		return "", err
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(form, h.cfg.UploadPreset, img))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.UploadURL, pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := h.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", img.Filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", fmt.Errorf("upload %s: status %d: %w", img.Filename, resp.StatusCode, pollster_errors.ErrNotUploaded)
	}

	var out cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("upload %s: decode response: %w", img.Filename, err)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("upload %s: %w", img.Filename, pollster_errors.ErrNotUploaded)
	}
	return out.SecureURL, nil
}

func writeUploadForm(form *multipart.Writer, preset string, img Image) error {
	if err := form.WriteField("upload_preset", preset); err != nil {
		return err
	}
	part, err := form.CreateFormFile("file", img.Filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, img.Body); err != nil {
		return err
	}
	return form.Close()
}
