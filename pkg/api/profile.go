package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/warden/pkg/domain"
)

// AllowedPictureExtensions lists the image types the upload endpoint accepts.
var AllowedPictureExtensions = []string{"png", "jpg", "jpeg", "gif", "webp"}

// ErrUnsupportedPicture is returned before upload for files the API would reject.
var ErrUnsupportedPicture = fmt.Errorf("unsupported picture type (allowed: %s)", strings.Join(AllowedPictureExtensions, ", "))

// Profile returns the logged-in user's own record.
func (c *Client) Profile(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.Get(ctx, "/auth/profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UploadProfilePicture uploads an image and returns the URL the API stored it under.
// userID may be empty.
func (c *Client) UploadProfilePicture(ctx context.Context, filename string, r io.Reader, userID string) (string, error) {
	if !allowedPicture(filename) {
		return "", fmt.Errorf("%s: %w", filename, ErrUnsupportedPicture)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filename, err)
	}

	form := &multipartForm{
		field:    "file",
		filename: filepath.Base(filename),
		data:     data,
	}
	if userID != "" {
		form.values = map[string]string{"user_id": userID}
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.Post(ctx, "/upload/profile-picture", form, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func allowedPicture(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return slices.Contains(AllowedPictureExtensions, ext)
}

// multipartForm is a single-file upload. It is re-encoded on every send so a
// retried request carries the full body again.
type multipartForm struct {
	field    string
	filename string
	data     []byte
	values   map[string]string
}

func (f *multipartForm) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range f.values {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile(f.field, f.filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(f.data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
