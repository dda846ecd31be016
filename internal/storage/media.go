package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"continental/internal/errs"
)

const uploadsSubdir = "uploads"

var allowedImages = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// Media writes admin uploads below Dir and serves them under PublicPrefix.
type Media struct {
	Dir          string
	PublicPrefix string
	MaxBytes     int64
}

type Saved struct {
	URL         string
	Path        string
	ContentType string
	Size        int64
}

func NewMedia(dir, publicPrefix string, maxBytes int64) *Media {
	return &Media{Dir: dir, PublicPrefix: strings.TrimRight(publicPrefix, "/"), MaxBytes: maxBytes}
}

// Save sniffs the content, refuses anything but images, and stores it with a
// uuid prefixed name carrying the sniffed extension.
func (m *Media) Save(name string, r io.Reader) (saved Saved, err error) {
	data, err := io.ReadAll(io.LimitReader(r, m.MaxBytes+1))
	if err != nil {
		return Saved{}, errs.Wrap(errs.CodeInternal, err, "Failed to upload file")
	}
	if len(data) == 0 {
		return Saved{}, errs.New(errs.CodeValidation, "No file uploaded")
	}
	if int64(len(data)) > m.MaxBytes {
		return Saved{}, errs.Newf(errs.CodeValidation, "File exceeds the %d MB limit", m.MaxBytes>>20)
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedImages...) {
		return Saved{}, errs.Newf(errs.CodeValidation, "Unsupported file type %s; upload an image", mt.String())
	}

	dir := filepath.Join(m.Dir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Saved{}, errs.Wrap(errs.CodeInternal, err, "Failed to upload file")
	}

	// the served content type follows the extension, so it comes from the sniffed type
	clean := SanitizeFileName(name)
	stem := strings.TrimSuffix(clean, path.Ext(clean))
	if stem == "" {
		stem = "upload"
	}
	fileName := uuid.NewString() + "-" + stem + mt.Extension()
	full := filepath.Join(dir, fileName)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Saved{}, errs.Wrap(errs.CodeInternal, err, "Failed to upload file")
	}
	defer func() {
		err = multierr.Append(err, f.Close())
		if err != nil {
			err = multierr.Append(err, os.Remove(full))
			saved = Saved{}
		}
	}()
	if _, err = f.Write(data); err != nil {
		return Saved{}, fmt.Errorf("write upload: %w", err)
	}

	return Saved{
		URL:         path.Join(m.PublicPrefix, uploadsSubdir, fileName),
		Path:        full,
		ContentType: mt.String(),
		Size:        int64(len(data)),
	}, nil
}

// SanitizeFileName keeps the base name and replaces anything outside
// letters, digits, dots, dashes and underscores with a dash.
func SanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-_.")
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}

// Resolve maps a public /media path onto disk, refusing traversal.
func (m *Media) Resolve(rel string) (string, bool) {
	lower := strings.ToLower(rel)
	if strings.Contains(lower, "..") || strings.Contains(lower, "%2e") || strings.ContainsRune(rel, 0) {
		return "", false
	}
	clean := filepath.Clean(rel)
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", false
	}
	return filepath.Join(m.Dir, clean), true
}
