// Package filex contains small filesystem helpers.
package filex

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
)

// maxImageSize caps how much we are willing to inline into a data URI.
const maxImageSize = 4 << 20

// ReadImageDataURI reads an image file and returns it encoded as a
// "data:<mime>;base64,..." URI suitable for storing as an avatar.
func ReadImageDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > maxImageSize {
		return "", fmt.Errorf("image %s too large (%d bytes)", path, len(data))
	}

	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
