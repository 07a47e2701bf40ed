package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dishout/internal/photostore"
)

type mockObjectAPI struct{ mock.Mock }

func (m *mockObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockObjectAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockObjectAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func TestSave(t *testing.T) {
	client := &mockObjectAPI{}
	var uploaded []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		if b, _ := io.ReadAll(in.Body); len(b) > 0 {
			uploaded = b
		}
		return aws.ToString(in.Bucket) == "photos" && aws.ToString(in.ContentType) == "image/webp"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	key, err := New(client, "photos").Save(context.Background(), "scan", "image/webp", bytes.NewReader([]byte("webp bytes")))

	require.NoError(t, err)
	assert.Regexp(t, `^scan_.*\.webp$`, key)
	assert.Equal(t, []byte("webp bytes"), uploaded)
	client.AssertExpectations(t)
}

func TestSaveError(t *testing.T) {
	client := &mockObjectAPI{}
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("AccessDenied")).Once()

	_, err := New(client, "photos").Save(context.Background(), "scan", "image/jpeg", bytes.NewReader(nil))

	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	client := &mockObjectAPI{}
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Bucket) == "photos" && aws.ToString(in.Key) == "scan_1.png"
	})).Return(&s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader([]byte("png bytes"))),
		ContentType: aws.String("image/png"),
	}, nil).Once()

	rc, mimeType, err := New(client, "photos").Get(context.Background(), "scan_1.png")

	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/png", mimeType)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), data)
}

func TestGetFallsBackToKeyMIME(t *testing.T) {
	client := &mockObjectAPI{}
	client.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(nil)),
	}, nil).Once()

	rc, mimeType, err := New(client, "photos").Get(context.Background(), "scan_1.gif")

	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "image/gif", mimeType)
}

func TestGetNotFound(t *testing.T) {
	client := &mockObjectAPI{}
	client.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

	_, _, err := New(client, "photos").Get(context.Background(), "missing.jpg")

	assert.ErrorIs(t, err, photostore.ErrNotFound)
}

func TestDelete(t *testing.T) {
	client := &mockObjectAPI{}
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "scan_1.jpg"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, New(client, "photos").Delete(context.Background(), "scan_1.jpg"))
	client.AssertExpectations(t)
}

func TestConnectRequiresBucket(t *testing.T) {
	_, err := Connect(context.Background(), Options{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestConnectWithStaticCredentialsAndEndpoint(t *testing.T) {
	ctx := context.Background()
	st, err := Connect(ctx, Options{
		Bucket:    "photos",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)

	client, ok := st.client.(*s3.Client)
	require.True(t, ok)
	o := client.Options()
	assert.True(t, o.UsePathStyle)
	assert.Equal(t, "http://localhost:9000", aws.ToString(o.BaseEndpoint))
	creds, err := o.Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "minio", creds.AccessKeyID)
}
