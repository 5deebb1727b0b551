package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// fakeS3 records PutObject calls; every other S3API method panics
type fakeS3 struct {
	s3iface.S3API
	inputs   []*s3.PutObjectInput
	bodies   [][]byte
	err      error
	deadline bool
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if _, ok := ctx.Deadline(); ok {
		f.deadline = true
	}
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, input)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

func TestUploader_Upload(t *testing.T) {
	fake := &fakeS3{}
	cfg := S3Config{Bucket: "renders", Prefix: "raytracer", CDNURL: "https://cdn.example.com/"}
	uploader := NewUploader(fake, cfg, discardLogger{})

	result, err := uploader.Upload(context.Background(), "default.png", []byte("pixels"), "image/png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if result.Key != "raytracer/default.png" {
		t.Errorf("Expected prefixed key, got %q", result.Key)
	}
	if result.URL != "https://cdn.example.com/raytracer/default.png" {
		t.Errorf("Expected CDN URL, got %q", result.URL)
	}
	if result.Size != 6 {
		t.Errorf("Expected size 6, got %d", result.Size)
	}

	if len(fake.inputs) != 1 {
		t.Fatalf("Expected 1 PutObject call, got %d", len(fake.inputs))
	}
	input := fake.inputs[0]
	if aws.StringValue(input.Bucket) != "renders" || aws.StringValue(input.ContentType) != "image/png" {
		t.Errorf("Unexpected input: %v", input)
	}
	if aws.StringValue(input.ACL) != "public-read" {
		t.Errorf("Expected public-read ACL, got %q", aws.StringValue(input.ACL))
	}
	if string(fake.bodies[0]) != "pixels" {
		t.Errorf("Unexpected body %q", fake.bodies[0])
	}
	if !fake.deadline {
		t.Error("Expected the upload context to carry a deadline")
	}
}

func TestUploader_UploadError(t *testing.T) {
	cause := errors.New("access denied")
	uploader := NewUploader(&fakeS3{err: cause}, S3Config{Bucket: "renders"}, discardLogger{})
	uploader.SetTimeout(time.Second)

	_, err := uploader.Upload(context.Background(), "out.png", []byte{1}, "image/png")
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped upload error, got %v", err)
	}

	if _, err := uploader.Upload(context.Background(), "", []byte{1}, "image/png"); err == nil {
		t.Error("Expected error for empty name")
	}
}

func TestUploader_URL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      S3Config
		expected string
	}{
		{"cdn", S3Config{Bucket: "b", CDNURL: "https://cdn.example.com"}, "https://cdn.example.com/k.png"},
		{"custom endpoint", S3Config{Bucket: "b", Endpoint: "http://localhost:9000/"}, "http://localhost:9000/b/k.png"},
		{"aws", S3Config{Bucket: "b", Region: "eu-west-1"}, "https://b.s3.eu-west-1.amazonaws.com/k.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := NewUploader(&fakeS3{}, tt.cfg, discardLogger{})
			if got := uploader.URL("k.png"); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNewS3Client(t *testing.T) {
	if _, err := NewS3Client(S3Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}

	client, err := NewS3Client(S3Config{
		AccessKey: "key",
		SecretKey: "secret",
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		Bucket:    "renders",
	})
	if err != nil {
		t.Fatalf("NewS3Client failed: %v", err)
	}
	if aws.StringValue(client.Config.Endpoint) != "http://localhost:9000" {
		t.Errorf("Expected custom endpoint, got %q", aws.StringValue(client.Config.Endpoint))
	}
	if !aws.BoolValue(client.Config.S3ForcePathStyle) {
		t.Error("Expected path-style addressing")
	}
}
