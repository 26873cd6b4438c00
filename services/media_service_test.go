package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	err     error
	lastKey string
}

func (f *fakePresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastKey = aws.ToString(in.Key)
	return &v4.PresignedHTTPRequest{URL: "https://bucket.example/" + f.lastKey + "?put", Method: "PUT"}, nil
}

func (f *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastKey = aws.ToString(in.Key)
	return &v4.PresignedHTTPRequest{URL: "https://bucket.example/" + f.lastKey + "?get", Method: "GET"}, nil
}

func TestMediaService_UploadURL(t *testing.T) {
	clock := newFakeClock()
	p := &fakePresigner{}
	svc := &MediaService{Presigner: p, Bucket: "media", TTL: 5 * time.Minute, Clock: clock.Now}
	ctx := context.Background()
	sess := NewSession("u1")

	ticket, err := svc.UploadURL(ctx, sess, MediaPhoto, "../../me.jpg", "image/jpeg")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ticket.Key, "profile-pics/u1/"), ticket.Key)
	require.True(t, strings.HasSuffix(ticket.Key, "-me.jpg"), ticket.Key)
	require.Contains(t, ticket.URL, ticket.Key)
	require.True(t, ticket.ExpiresAt.After(clock.Now().Add(4*time.Minute)))
	require.True(t, ownsKey(MediaPhoto, "u1", ticket.Key))
	require.False(t, ownsKey(MediaPhoto, "u2", ticket.Key))

	_, err = svc.UploadURL(ctx, sess, "video", "a.mp4", "video/mp4")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.UploadURL(ctx, sess, MediaVoice, "", "audio/m4a")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.UploadURL(ctx, sess, MediaVoice, "a.m4a", "")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.UploadURL(ctx, nil, MediaVoice, "a.m4a", "audio/m4a")
	require.ErrorIs(t, err, ErrUnauthenticated)

	p.err = errors.New("no credentials")
	_, err = svc.UploadURL(ctx, sess, MediaChat, "a.jpg", "image/jpeg")
	require.ErrorIs(t, err, ErrTransient)
}

func TestMediaService_ReadURL(t *testing.T) {
	svc := &MediaService{Presigner: &fakePresigner{}, Bucket: "media", TTL: time.Minute}
	ctx := context.Background()
	sess := NewSession("u1")

	url, err := svc.ReadURL(ctx, sess, "chat-media/u2/x.jpg")
	require.NoError(t, err)
	require.Contains(t, url, "chat-media/u2/x.jpg")

	for _, key := range []string{"", "secrets/x", "profile-pics/", "voice/../../etc/passwd"} {
		_, err := svc.ReadURL(ctx, sess, key)
		require.ErrorIs(t, err, ErrInvalidArgument, key)
	}
}
