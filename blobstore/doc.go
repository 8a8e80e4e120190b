// Package blobstore provides the storage abstraction for immutable index
// blobs: sealed segment files and the manifest that lists them.
//
// All implementations share one context-aware interface and are safe for
// concurrent use:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// # Built-in Implementations
//
//   - MemoryStore: in-process, for tests and ephemeral indexes
//   - LocalStore: local filesystem, mmap reads, atomic rename writes and an
//     optional cross-process directory lock
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible backends
//   - CachingStore: keeps immutable blob contents of any store in memory
//
// Blob names are slash-separated and relative to the store root. A missing
// blob is reported as an error satisfying errors.Is(err, ErrNotFound).
package blobstore
