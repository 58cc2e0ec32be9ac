package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/support-chat/internal/domain"
)

// PublicPrefix is the URL path uploaded media is served under.
const PublicPrefix = "/static/uploads"

var (
	ErrTooLarge    = errors.New("storage: file too large")
	ErrUnsupported = errors.New("storage: unsupported content kind")
	ErrOutsideRoot = errors.New("storage: reference outside upload root")
)

var kindDirs = map[domain.ContentKind]string{
	domain.ContentImage: "images",
	domain.ContentVoice: "voice",
}

// MediaStore writes uploaded images and voice notes below a root directory.
type MediaStore struct {
	root     string
	maxBytes int64
}

// NewMediaStore creates the per-kind directories under root.
func NewMediaStore(root string, maxBytes int64) (*MediaStore, error) {
	for _, dir := range kindDirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &MediaStore{root: root, maxBytes: maxBytes}, nil
}

// Root returns the directory served at PublicPrefix.
func (s *MediaStore) Root() string {
	return s.root
}

// Save stores src under a random name keeping the original extension and
// returns the public reference recorded as message content.
func (s *MediaStore) Save(kind domain.ContentKind, originalName string, src io.Reader) (string, error) {
	dir, ok := kindDirs[kind]
	if !ok {
		return "", ErrUnsupported
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	target := filepath.Join(s.root, dir, name)

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}

	reader := src
	if s.maxBytes > 0 {
		reader = io.LimitReader(src, s.maxBytes+1)
	}
	written, copyErr := io.Copy(f, reader)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(target)
		return "", fmt.Errorf("write media file: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(target)
		return "", fmt.Errorf("close media file: %w", closeErr)
	case s.maxBytes > 0 && written > s.maxBytes:
		_ = os.Remove(target)
		return "", ErrTooLarge
	}

	return path.Join(PublicPrefix, dir, name), nil
}

// Remove deletes the file behind a public reference. Missing files are not
// an error.
func (s *MediaStore) Remove(ref string) error {
	target, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *MediaStore) resolve(ref string) (string, error) {
	rel := strings.TrimPrefix(path.Clean("/"+ref), PublicPrefix+"/")
	if rel == "" || strings.HasPrefix(rel, "/") || strings.Contains(rel, "..") {
		return "", ErrOutsideRoot
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}
