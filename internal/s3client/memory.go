package s3client

import (
	"context"
	"fmt"
	"net/http/httptest"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

// NewInMemory starts a gofakes3 server holding bucketName and returns a
// Client bound to it. Objects live only as long as the process; call the
// returned func to stop the server. Used by --no-s3 and by tests.
func NewInMemory(ctx context.Context, bucketName string) (*Client, func(), error) {
	faker := gofakes3.New(s3mem.New())
	ts := httptest.NewServer(faker.Server())

	client, err := New(ctx, Config{
		Endpoint:        ts.URL,
		Region:          "us-east-1",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		BucketName:      bucketName,
		UsePathStyle:    true,
	})
	if err != nil {
		ts.Close()
		return nil, nil, err
	}

	_, err = client.s3Client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		ts.Close()
		return nil, nil, fmt.Errorf("s3client: failed to create bucket %q: %w", bucketName, err)
	}
	return client, ts.Close, nil
}
