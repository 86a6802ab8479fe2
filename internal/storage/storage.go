package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxAvatarSize is the largest accepted avatar upload.
const MaxAvatarSize = 5 << 20

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// 允许的头像格式，按内容判断而不是按扩展名
var imageTypes = []struct {
	mime string
	ext  string
}{
	{"image/jpeg", ".jpg"},
	{"image/png", ".png"},
	{"image/gif", ".gif"},
	{"image/webp", ".webp"},
}

// Storage keeps uploaded files and returns where clients can fetch them.
type Storage interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Image is a sniffed upload ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
	Name        string
}

// ReadImage reads at most limit bytes from r and checks that the content
// is a supported image. The stored name is a fresh uuid plus extension.
func ReadImage(r io.Reader, limit int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}

	detected := mimetype.Detect(data)
	for _, t := range imageTypes {
		if detected.Is(t.mime) {
			return &Image{
				Data:        data,
				ContentType: t.mime,
				Name:        uuid.NewString() + t.ext,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
}

// LocalStorage writes files under dir and serves them from urlPrefix.
type LocalStorage struct {
	dir       string
	urlPrefix string
}

func NewLocalStorage(dir, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir, urlPrefix: urlPrefix}, nil
}

func (s *LocalStorage) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	name = filepath.Base(name)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return s.urlPrefix + "/" + name, nil
}
