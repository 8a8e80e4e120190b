package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hupe1980/versionfield/blobstore"
	miniostore "github.com/hupe1980/versionfield/blobstore/minio"
	"github.com/hupe1980/versionfield/blobstore/s3"
	"github.com/hupe1980/versionfield/internal/manifest"
)

// remoteCacheBytes bounds the read cache put in front of object stores.
const remoteCacheBytes = 256 << 20

var errNoStore = errors.New("no store configured: pass --store or set store in the config file")

// openStore resolves a store location:
//
//	./data, file:///var/data     local directory
//	mem://                       in-process memory (lost on exit)
//	s3://bucket/prefix           AWS S3, credentials from the default chain
//	minio://host:port/bucket/p   MinIO, credentials from MINIO_ACCESS_KEY and MINIO_SECRET_KEY
func openStore(ctx context.Context, location string) (blobstore.BlobStore, error) {
	if location == "" {
		return nil, errNoStore
	}
	if !strings.Contains(location, "://") {
		return blobstore.NewLocalStore(location), nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("store %q: %w", location, err)
	}
	prefix := strings.Trim(u.Path, "/")

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Host + u.Path), nil
	case "mem", "memory":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("store %q: missing bucket", location)
		}
		var opts []s3.Option
		if prefix != "" {
			opts = append(opts, s3.WithPrefix(prefix))
		}
		if region := u.Query().Get("region"); region != "" {
			opts = append(opts, s3.WithRegion(region))
		}
		if endpoint := u.Query().Get("endpoint"); endpoint != "" {
			opts = append(opts, s3.WithEndpoint(endpoint))
		}
		store, err := s3.New(ctx, u.Host, opts...)
		if err != nil {
			return nil, err
		}
		return cached(store), nil
	case "minio":
		bucket, root, _ := strings.Cut(prefix, "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("store %q: want minio://host/bucket[/prefix]", location)
		}
		client, err := miniostore.Dial(u.Host, os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), u.Query().Get("secure") == "true")
		if err != nil {
			return nil, err
		}
		store := miniostore.NewStore(client, bucket, root)
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return cached(store), nil
	default:
		return nil, fmt.Errorf("store %q: unsupported scheme %q", location, u.Scheme)
	}
}

func cached(store blobstore.BlobStore) blobstore.BlobStore {
	return blobstore.NewCachingStore(store, remoteCacheBytes, manifest.CurrentFileName)
}
