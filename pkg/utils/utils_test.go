package utils

import (
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(name, contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{Filename: name, Header: h, Size: size}
}

func TestNewULIDFromTimestamp(t *testing.T) {
	now := time.UnixMilli(1714566600000)

	id, err := New().NewULIDFromTimestamp(now)
	require.NoError(t, err)

	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1714566600000), parsed.Time())
}

func TestValidateAudioFile(t *testing.T) {
	u := New()

	cases := map[string]struct {
		file *multipart.FileHeader
		want error
	}{
		"nil":             {nil, ErrNoFile},
		"too small":       {header("a.webm", "audio/webm", 999), ErrAudioTooSmall},
		"too large":       {header("a.webm", "audio/webm", MaxAudioBytes+1), ErrAudioTooLarge},
		"image":           {header("a.png", "image/png", 5000), ErrUnsupportedFormat},
		"audio mime":      {header("blob", "audio/webm", 5000), nil},
		"octet with ext":  {header("clip.WAV", "application/octet-stream", 5000), nil},
		"exact min bytes": {header("a.mp3", "", MinAudioBytes), nil},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := u.ValidateAudioFile(tc.file)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
