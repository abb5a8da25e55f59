// Package uploads stores article images in a local directory under
// collision-free names derived from the original filename.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

const sniffLen = 512

// AllowedTypes are the sniffed content types accepted for article images.
var AllowedTypes = []string{"image/png", "image/jpeg"}

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
}

// ImageStore writes images into Dir.
type ImageStore struct {
	Dir      string
	MaxBytes int64
}

// NewImageStore creates dir if needed.
func NewImageStore(dir string, maxBytes int64) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{Dir: dir, MaxBytes: maxBytes}, nil
}

// Sniff detects the content type from the first bytes of the upload.
func Sniff(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return sniffReader(f)
}

func sniffReader(r io.Reader) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

// Filename builds "<slug of base name>-<token>.<ext>".
func Filename(original, contentType string) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", ErrInvalidImage
	}
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	return Slugify(base) + "-" + uuid.NewString() + "." + ext, nil
}

// Save copies the upload into Dir under a fresh name and returns that name.
// A partially written file is removed on error.
func (s *ImageStore) Save(fh *multipart.FileHeader) (string, error) {
	if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
		return "", ErrTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	contentType, err := sniffReader(src)
	if err != nil {
		return "", err
	}
	name, err := Filename(fh.Filename, contentType)
	if err != nil {
		return "", err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	dst, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	var reader io.Reader = src
	if s.MaxBytes > 0 {
		reader = io.LimitReader(src, s.MaxBytes+1)
	}
	written, err := io.Copy(dst, reader)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxBytes > 0 && written > s.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.Dir, name))
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	klog.V(2).Infof("stored upload %q as %s (%d bytes)", fh.Filename, name, written)
	return name, nil
}

// Path returns the absolute location of a stored name.
func (s *ImageStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.Dir, name), nil
}

// Remove deletes a stored image. Missing files are not an error.
func (s *ImageStore) Remove(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Exists reports whether name is present in Dir.
func (s *ImageStore) Exists(name string) bool {
	p, err := s.Path(name)
	if err != nil {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
