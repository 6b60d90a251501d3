package app

import (
	"errors"
	"testing"

	"github.com/yungbote/studypath-backend/internal/platform/gcp"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{"invalid mode", &gcp.ObjectStorageConfigError{Field: "OBJECT_STORAGE_MODE", Value: "bad"}, StorageProviderBootstrapErrorInvalidMode},
		{"missing bucket", &gcp.ObjectStorageConfigError{Field: "GCS_BUCKET_NAME"}, StorageProviderBootstrapErrorMissingBucket},
		{"emulator host", &gcp.ObjectStorageConfigError{Field: "STORAGE_EMULATOR_HOST", Value: "fake-gcs:4443"}, StorageProviderBootstrapErrorInvalidEmulatorHost},
		{"connect", errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS}, tc.err)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("cause not preserved")
			}
		})
	}
}

func TestStorageConfigDefaults(t *testing.T) {
	if got := storageConfig(Config{BucketName: "b"}).Mode; got != gcp.ObjectStorageModeGCS {
		t.Fatalf("mode: got=%q", got)
	}
	got := storageConfig(Config{BucketName: "b", StorageEmulatorHost: "http://fake-gcs:4443/"})
	if got.Mode != gcp.ObjectStorageModeGCSEmulator || got.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator config: %+v", got)
	}
}

func TestResolveBucketServiceInvalidMode(t *testing.T) {
	_, err := resolveBucketService(logger.Nop(), Config{ObjectStorageMode: "invalid"})
	if storageProviderBootstrapErrorCode(err) != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveBucketServiceMissingBucket(t *testing.T) {
	called := false
	orig := newBucketServiceWithConfig
	newBucketServiceWithConfig = func(*logger.Logger, gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		called = true
		return nil, errors.New("unreachable")
	}
	t.Cleanup(func() { newBucketServiceWithConfig = orig })

	_, err := resolveBucketService(logger.Nop(), Config{ObjectStorageMode: "gcs"})
	if storageProviderBootstrapErrorCode(err) != StorageProviderBootstrapErrorMissingBucket {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("bucket constructor must not run on invalid config")
	}
}

func TestResolveBucketServiceMemoryMode(t *testing.T) {
	bucket, err := resolveBucketService(logger.Nop(), Config{ObjectStorageMode: "memory"})
	if err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if _, ok := bucket.(*gcp.MemoryBucket); !ok {
		t.Fatalf("expected memory bucket, got %T", bucket)
	}
}

func TestResolveBucketServiceConnectFailure(t *testing.T) {
	orig := newBucketServiceWithConfig
	newBucketServiceWithConfig = func(*logger.Logger, gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	t.Cleanup(func() { newBucketServiceWithConfig = orig })

	_, err := resolveBucketService(logger.Nop(), Config{ObjectStorageMode: "gcs", BucketName: "studypath"})
	if storageProviderBootstrapErrorCode(err) != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("unexpected error: %v", err)
	}
}
