package s3client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PutGetListDelete(t *testing.T) {
	t.Parallel()
	c := TestClient(t, "exports")
	ctx := t.Context()

	require.NoError(t, c.PutObject(ctx, "u1/a.md", []byte("# a"), "text/markdown"))
	require.NoError(t, c.PutObject(ctx, "u1/sub/b.md", []byte("# b"), "text/markdown"))
	require.NoError(t, c.PutObject(ctx, "u2/c.md", []byte("# c"), "text/markdown"))

	got, err := c.GetObject(ctx, "u1/a.md")
	require.NoError(t, err)
	assert.Equal(t, "# a", string(got))

	keys, err := c.ListKeys(ctx, "u1/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1/a.md", "u1/sub/b.md"}, keys)

	require.NoError(t, c.DeleteObject(ctx, "u1/a.md"))
	_, err = c.GetObject(ctx, "u1/a.md")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Equal(t, "exports", c.BucketName())
}
