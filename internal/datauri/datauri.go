// Package datauri builds and parses the data URIs used to embed screenshots
// in model request payloads.
package datauri

import (
	"fmt"
	"strings"
)

const pngPrefix = "data:image/png;base64,"

// PNG wraps base64-encoded PNG bytes in a data URI.
func PNG(encoded string) string {
	return pngPrefix + encoded
}

// Payload splits a data URI into its media type and base64 payload.
func Payload(uri string) (mediaType, encoded string, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", "", fmt.Errorf("not a data uri: %q", truncate(uri))
	}
	rest := strings.TrimPrefix(uri, "data:")
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", fmt.Errorf("data uri has no payload: %q", truncate(uri))
	}
	mediaType = strings.TrimSuffix(meta, ";base64")
	if mediaType == meta {
		return "", "", fmt.Errorf("data uri is not base64-encoded: %q", truncate(uri))
	}
	return mediaType, payload, nil
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
