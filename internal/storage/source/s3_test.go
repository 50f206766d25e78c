// internal/storage/source/s3_test.go
package source

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	objects map[string][]byte
	mod     time.Time
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(data))),
		LastModified:  aws.Time(f.mod),
	}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var contents []types.Object
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			contents = append(contents, types.Object{Key: aws.String(k)})
		}
	}
	return &s3.ListObjectsV2Output{Contents: contents}, nil
}

func newFakeStorage(prefix string) (*S3Storage, *fakeS3) {
	fake := &fakeS3{
		objects: map[string][]byte{
			"factors/N500_Alpha.csv":  []byte("date,A\n01-01-2024,1\n"),
			"factors/N500_Prices.csv": []byte("date,A\n"),
		},
		mod: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	return &S3Storage{client: fake, bucket: "panels", prefix: prefix}, fake
}

func TestNewS3_RequiresBucket(t *testing.T) {
	if _, err := NewS3(S3Config{Region: "us-east-1"}); err == nil {
		t.Error("expected error without bucket")
	}
}

func TestS3Config_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.csv", "file.csv"},
		{"factors", "file.csv", "factors/file.csv"},
		{"factors/", "file.csv", "factors/file.csv"},
	}

	for _, tt := range tests {
		s := &S3Storage{prefix: strings.TrimSuffix(tt.prefix, "/")}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestS3Storage_ReadStatExists(t *testing.T) {
	s, fake := newFakeStorage("factors")
	ctx := context.Background()

	data, err := s.Read(ctx, "N500_Alpha.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.HasPrefix(string(data), "date,A") {
		t.Errorf("unexpected body %q", data)
	}

	info, err := s.Stat(ctx, "N500_Alpha.csv")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.ModTime.Equal(fake.mod) || info.Size != int64(len(data)) {
		t.Errorf("Stat = %+v", info)
	}

	ok, err := s.Exists(ctx, "N500_Alpha.csv")
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v; want true", ok, err)
	}
	ok, err = s.Exists(ctx, "missing.csv")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v; want false", ok, err)
	}
}

func TestS3Storage_List(t *testing.T) {
	s, _ := newFakeStorage("factors")

	paths, err := s.List(context.Background(), "N500_")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", paths)
	}
	for _, p := range paths {
		if strings.HasPrefix(p, "factors/") {
			t.Errorf("path %q should be relative to prefix", p)
		}
	}
}

func TestS3Storage_Name(t *testing.T) {
	s, _ := newFakeStorage("factors")
	if s.Name() != "s3://panels/factors" {
		t.Errorf("Name() = %q", s.Name())
	}
	s.prefix = ""
	if s.Name() != "s3://panels" {
		t.Errorf("Name() = %q", s.Name())
	}
}
