package library

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects in a map and serves one page per thousand keys
type fakeS3 struct {
	objects map[string][]byte
	pools   [][]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.pools == nil {
		var keys []string
		for k := range f.objects {
			keys = append(keys, k)
		}
		const pageSize = 1000
		for len(keys) > 0 {
			n := pageSize
			if len(keys) < n {
				n = len(keys)
			}
			f.pools = append(f.pools, keys[:n])
			keys = keys[n:]
		}
		if f.pools == nil {
			f.pools = [][]string{{}}
		}
	}

	page := 0
	if params.ContinuationToken != nil {
		page = int((*params.ContinuationToken)[0] - '0')
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(page < len(f.pools)-1)}
	for _, k := range f.pools[page] {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(f.objects[k]))),
			LastModified: aws.Time(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		})
	}
	if aws.ToBool(out.IsTruncated) {
		out.NextContinuationToken = aws.String(string(rune('0' + page + 1)))
	}
	return out, nil
}

func (f *fakeS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(params.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	f.pools = nil
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(params.Key))
	f.pools = nil
	return &s3.DeleteObjectOutput{}, nil
}

func TestUploadListDelete(t *testing.T) {
	fake := newFakeS3()
	lib := NewWithClient(fake, "bookhub-library", "us-east-1")
	ctx := context.Background()

	require.NoError(t, lib.Upload(ctx, "dune.pdf", strings.NewReader("contents")))

	objects, err := lib.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "dune.pdf", objects[0].Key)
	assert.Equal(t, int64(len("contents")), objects[0].Size)

	exists, err := lib.Exists(ctx, "dune.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, lib.Delete(ctx, "dune.pdf"))
	exists, err = lib.Exists(ctx, "dune.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUploadRefusesOverwrite(t *testing.T) {
	fake := newFakeS3()
	lib := NewWithClient(fake, "bookhub-library", "us-east-1")
	ctx := context.Background()

	require.NoError(t, lib.Upload(ctx, "dune.pdf", strings.NewReader("first")))
	err := lib.Upload(ctx, "dune.pdf", strings.NewReader("second"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, []byte("first"), fake.objects["dune.pdf"])
}

func TestListPaginatesAndSorts(t *testing.T) {
	fake := newFakeS3()
	lib := NewWithClient(fake, "bookhub-library", "us-east-1")
	ctx := context.Background()

	for i := 0; i < 1500; i++ {
		key := strings.Repeat("a", i%3+1) + string(rune('a'+i%26)) + "-" + string(rune('0'+i/100))
		fake.objects[key] = []byte("x")
	}

	objects, err := lib.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(fake.objects), len(objects))
	for i := 1; i < len(objects); i++ {
		assert.LessOrEqual(t, objects[i-1].Key, objects[i].Key)
	}
}

func TestURL(t *testing.T) {
	lib := NewWithClient(newFakeS3(), "bookhub-library", "us-east-1")
	assert.Equal(t,
		"https://bookhub-library.s3.us-east-1.amazonaws.com/the+art+of+war.pdf",
		lib.URL("the art of war.pdf"))
}
