package object

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// SniffContentType detects the MIME type from the first 512 bytes of r.
// Seekable readers are rewound and returned as-is; others are returned as a
// reader that replays the sniffed prefix.
func SniffContentType(r io.Reader) (string, io.Reader, error) {
	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", readErr)
	}
	mimeType := http.DetectContentType(sniff[:n])

	if seeker, ok := r.(io.ReadSeeker); ok {
		if _, err := seeker.Seek(-int64(n), io.SeekCurrent); err == nil {
			return mimeType, seeker, nil
		}
	}
	return mimeType, io.MultiReader(bytes.NewReader(sniff[:n]), r), nil
}
