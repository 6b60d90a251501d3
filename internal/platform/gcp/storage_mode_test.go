package gcp

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
)

func TestResolveObjectStorageConfigFromEnvDefaultGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("GCS_BUCKET_NAME", "studypath")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvEmulatorFallback(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")
	t.Setenv("GCS_BUCKET_NAME", "studypath")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCSEmulator, cfg.Mode)
	}
	if cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: got=%q", cfg.EmulatorHost)
	}
}

func TestResolveObjectStorageConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name   string
		mode   string
		host   string
		bucket string
	}{
		{name: "invalid mode", mode: "s3", bucket: "b"},
		{name: "missing bucket", mode: "gcs"},
		{name: "emulator without host", mode: "gcs_emulator", bucket: "b"},
		{name: "emulator bad host", mode: "gcs_emulator", host: "fake-gcs:4443", bucket: "b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.host)
			t.Setenv("GCS_BUCKET_NAME", tc.bucket)
			if _, err := ResolveObjectStorageConfigFromEnv(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	cases := []struct {
		cfg  ObjectStorageConfig
		want string
	}{
		{
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCS, BucketName: "b"},
			want: "https://storage.googleapis.com/b/avatars/u.png",
		},
		{
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCS, BucketName: "b", CDNDomain: "cdn.example.com"},
			want: "https://cdn.example.com/avatars/u.png",
		},
		{
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, BucketName: "b", EmulatorHost: "http://localhost:4443"},
			want: "http://localhost:4443/storage/v1/b/b/o/avatars%2Fu.png?alt=media",
		},
	}
	for _, tc := range cases {
		bs := &bucketService{cfg: tc.cfg}
		if got := bs.GetPublicURL(BucketCategoryAvatar, "/u.png"); got != tc.want {
			t.Fatalf("GetPublicURL: want=%q got=%q", tc.want, got)
		}
	}
}

func TestMemoryBucket(t *testing.T) {
	m := NewMemoryBucket()
	dbc := dbctx.Context{Ctx: context.Background()}
	if err := m.UploadFile(dbc, BucketCategoryUpload, "u/a.txt", bytes.NewBufferString("hello")); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	rc, err := m.DownloadFile(context.Background(), BucketCategoryUpload, "u/a.txt")
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "hello" {
		t.Fatalf("DownloadFile: got %q", data)
	}
	if err := m.DeleteFile(dbc, BucketCategoryUpload, "u/a.txt"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if m.Has(BucketCategoryUpload, "u/a.txt") {
		t.Fatalf("expected object to be gone")
	}
}
