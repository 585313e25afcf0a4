package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func TestSubmissionArtifactKey(t *testing.T) {
	pattern := regexp.MustCompile(`^submissions/7/[0-9a-f-]{36}\.zip$`)
	assert.Regexp(t, pattern, SubmissionArtifactKey(7, "My Game.ZIP"))
	assert.Regexp(t, pattern, SubmissionArtifactKey(7, `C:\builds\game.zip`))

	noExt := SubmissionArtifactKey(7, "README")
	assert.Regexp(t, `^submissions/7/[0-9a-f-]{36}$`, noExt)

	assert.NotEqual(t, SubmissionArtifactKey(7, "a.zip"), SubmissionArtifactKey(7, "a.zip"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/submissions/1/x.zip", publicURL("https://cdn.example.com", "submissions/1/x.zip"))
	assert.Equal(t, "https://cdn.example.com/jam/submissions/1/x.zip", publicURL("https://cdn.example.com/jam/", "/submissions/1/x.zip"))
	assert.Empty(t, publicURL("", "k"))
	assert.Empty(t, publicURL("https://cdn.example.com", ""))
}

func TestUploader_Upload(t *testing.T) {
	client := new(mockS3)
	u := newUploader(client, "jam", "https://cdn.example.com")

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "jam" &&
			aws.ToString(in.Key) == "submissions/1/a.zip" &&
			aws.ToString(in.ContentType) == "application/zip" &&
			aws.ToInt64(in.ContentLength) == 4
	})).Return(&s3.PutObjectOutput{ETag: aws.String(`"abc"`)}, nil).Once()

	res, err := u.Upload(context.Background(), "submissions/1/a.zip", "application/zip", 4, strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, "abc", res.ETag)
	assert.Equal(t, "https://cdn.example.com/submissions/1/a.zip", res.Location)
	client.AssertExpectations(t)
}

func TestUploader_Errors(t *testing.T) {
	client := new(mockS3)
	u := newUploader(client, "jam", "https://cdn.example.com")
	boom := errors.New("boom")

	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, boom).Once()
	_, err := u.Upload(context.Background(), "k", "text/plain", 0, io.NopCloser(strings.NewReader("")))
	require.ErrorIs(t, err, boom)

	client.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, boom).Once()
	require.ErrorIs(t, u.Delete(context.Background(), "k"), boom)

	client.On("DeleteObject", mock.Anything, mock.Anything).Return(&s3.DeleteObjectOutput{}, nil).Once()
	require.NoError(t, u.Delete(context.Background(), "k"))
	client.AssertExpectations(t)
}

func TestNewCloudflareR2Uploader_RequiresConfig(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccountID: "a"})
	require.Error(t, err)
}
