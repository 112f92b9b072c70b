package utils

import (
	"crypto/rand"
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	MinAudioBytes = 1000
	MaxAudioBytes = 25 * 1024 * 1024
)

var (
	ErrNoFile            = errors.New("no file uploaded")
	ErrAudioTooSmall     = errors.New("audio file is too small to contain speech")
	ErrAudioTooLarge     = errors.New("audio file size exceeds limit")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

var audioExtensions = map[string]bool{
	".webm": true,
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".mp4":  true,
	".mpga": true,
}

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateAudioFile(file *multipart.FileHeader) error
}

type utils struct {
	minFileSize int64
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		minFileSize: MinAudioBytes,
		maxFileSize: MaxAudioBytes,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// ValidateAudioFile accepts uploads that look like audio by content type or
// extension and fall within the size bounds.
func (u *utils) ValidateAudioFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size < u.minFileSize {
		return ErrAudioTooSmall
	}
	if file.Size > u.maxFileSize {
		return ErrAudioTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !strings.HasPrefix(contentType, "audio/") && !audioExtensions[ext] {
		return ErrUnsupportedFormat
	}

	return nil
}
