package service

import "strings"

// URLResolver maps a storage key to a publicly fetchable URL.
type URLResolver func(key string) string

// NewURLResolver builds a resolver preferring the storage layer's
// public URL (CDN / R2.dev) and falling back to the API's serve route.
// Parameters:
//   - storagePublicURL: public URL prefix of the object store; may be empty.
//   - serverBaseURL: base URL of this API server.
// Returns:
//   - URLResolver: resolver function.
func NewURLResolver(storagePublicURL, serverBaseURL string) URLResolver {
	storagePublicURL = strings.TrimSuffix(storagePublicURL, "/")
	serverBaseURL = strings.TrimSuffix(serverBaseURL, "/")

	return func(key string) string {
		if storagePublicURL != "" {
			return storagePublicURL + "/" + key
		}
		return serverBaseURL + "/api/v1/serve/" + key
	}
}
