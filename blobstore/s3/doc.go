// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("indexes/app-versions"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	if err != nil { ... }
//
//	err = idx.Save(ctx, store)
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads through the SDK transfer manager for large segments
//   - CRC32C integrity checks on single-shot puts
//   - Automatic pagination for listing
//   - A key prefix so several indexes can share one bucket
package s3
