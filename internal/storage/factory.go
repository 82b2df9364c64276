package storage

import "strings"

// NewStorage builds the ObjectStorage for the configured backend. An
// explicit cfg.Type wins; otherwise the type is classified from the
// endpoint host, so pointing the endpoint at R2, AWS, or a self-hosted
// MinIO is enough without a separate type setting.
// Parameters:
//   - cfg: storage configuration including endpoint, credentials, and bucket.
// Returns:
//   - ObjectStorage: initialized storage client.
//   - error: non-nil if the client cannot be created.
func NewStorage(cfg *S3Config) (ObjectStorage, error) {
	if cfg.Type == "" {
		cfg.Type = classifyEndpoint(cfg.Endpoint)
	}
	return NewS3Storage(cfg)
}

// classifyEndpoint maps an endpoint host to a StorageType. Anything
// that is neither Cloudflare R2 nor AWS proper (MinIO, localstack, a
// custom gateway) is treated as generic S3-compatible, which keeps
// path-style addressing and API-side bucket creation available.
func classifyEndpoint(endpoint string) StorageType {
	host := strings.ToLower(normalizeEndpoint(endpoint))

	switch {
	case strings.HasSuffix(host, ".r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.HasSuffix(host, ".amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
