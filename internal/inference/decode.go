package inference

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// RawImage is the single internal representation every gateway response
// shape is decoded into before further processing.
type RawImage struct {
	Bytes       []byte
	ContentType string
}

// DecodeResponse normalizes a gateway response body into a RawImage.
// An image/* content type is taken as a raw byte stream; anything else
// must be a JSON object carrying a base64 image string.
// Parameters:
//   - contentType: response Content-Type header.
//   - body: response body bytes.
// Returns:
//   - *RawImage: decoded image.
//   - error: non-nil for unknown shapes or undecodable payloads.
func DecodeResponse(contentType string, body []byte) (*RawImage, error) {
	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx != -1 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	if strings.HasPrefix(mediaType, "image/") {
		if len(body) == 0 {
			return nil, fmt.Errorf("inference API returned empty image stream")
		}
		return &RawImage{Bytes: body, ContentType: mediaType}, nil
	}

	var inline inlineResponse
	if err := json.Unmarshal(body, &inline); err != nil {
		return nil, fmt.Errorf("unexpected inference response shape (content type %q): %w", contentType, err)
	}
	if inline.Error != nil {
		return nil, fmt.Errorf("inference API error: %s", inline.Error.Message)
	}
	if inline.Image == "" {
		return nil, fmt.Errorf("unexpected inference response shape: no image field")
	}

	return DecodeInlineBase64(inline.Image)
}

// DecodeInlineBase64 decodes a base64 image payload, stripping an
// optional data-URL header (data:image/png;base64,...) first.
// Parameters:
//   - payload: base64 string, with or without data-URL prefix.
// Returns:
//   - *RawImage: decoded image; content type from the data-URL header
//     when present, image/png otherwise.
//   - error: non-nil if the payload is not valid base64.
func DecodeInlineBase64(payload string) (*RawImage, error) {
	contentType := "image/png"

	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx == -1 {
			return nil, fmt.Errorf("malformed data URL in inference response")
		}
		header := payload[len("data:"):idx]
		if mt := strings.TrimSuffix(header, ";base64"); mt != "" {
			contentType = mt
		}
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("inference API returned empty image payload")
	}

	return &RawImage{Bytes: data, ContentType: contentType}, nil
}
