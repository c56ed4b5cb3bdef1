package s3client

import (
	"context"
	"testing"
)

// TestClient creates a Client backed by an in-memory gofakes3 server with
// bucketName already created. The server is closed when the test completes.
func TestClient(t testing.TB, bucketName string) *Client {
	t.Helper()

	client, shutdown, err := NewInMemory(context.Background(), bucketName)
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	t.Cleanup(shutdown)
	return client
}
