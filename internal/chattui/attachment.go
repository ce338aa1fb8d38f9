package chattui

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxPhotoBytes bounds inlined attachments; the service stores them as data
// URIs inside the message row.
const maxPhotoBytes = 2 << 20

var photoMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// EncodePhotoDataURI reads an image file and inlines it as a base64 data URI.
func EncodePhotoDataURI(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := photoMIMETypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxPhotoBytes {
		return "", fmt.Errorf("image is %d bytes, limit is %d", info.Size(), maxPhotoBytes)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
