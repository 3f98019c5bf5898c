package packager

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	input *awss3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &awss3.PutObjectOutput{}, nil
}

func TestS3PublisherUploadsArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "talk_transcripts_and_video.zip")
	if err := os.WriteFile(archive, []byte("PK zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	client := &fakeS3{}
	pub := newS3Publisher(client, "captions", "/anuvadika/")

	url, err := pub.Publish(context.Background(), "run-9", archive)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if url != "s3://captions/anuvadika/run-9/talk_transcripts_and_video.zip" {
		t.Fatalf("url = %q", url)
	}
	if aws.ToString(client.input.Bucket) != "captions" || aws.ToString(client.input.Key) != "anuvadika/run-9/talk_transcripts_and_video.zip" {
		t.Fatalf("unexpected input %+v", client.input)
	}
	if aws.ToInt64(client.input.ContentLength) != 6 || string(client.body) != "PK zip" {
		t.Fatalf("unexpected body %q", client.body)
	}
}

func TestS3PublisherEmptyPrefix(t *testing.T) {
	pub := newS3Publisher(&fakeS3{}, "b", "")
	if key := pub.Key("run", "/x/a.zip"); key != "run/a.zip" {
		t.Fatalf("key = %q", key)
	}
}

func TestS3PublisherErrors(t *testing.T) {
	pub := newS3Publisher(&fakeS3{err: errors.New("access denied")}, "b", "p")
	archive := filepath.Join(t.TempDir(), "a.zip")
	if err := os.WriteFile(archive, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := pub.Publish(context.Background(), "run", archive); err == nil {
		t.Fatal("expected upload error")
	}
	if _, err := pub.Publish(context.Background(), "run", filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Fatal("expected open error")
	}
}
