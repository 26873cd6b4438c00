package services

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Media kinds and the bucket prefixes they are stored under.
const (
	MediaPhoto  = "photo"
	MediaVoice  = "voice"
	MediaChat   = "chat"
	MediaSelfie = "selfie"
)

var mediaPrefixes = map[string]string{
	MediaPhoto:  "profile-pics/",
	MediaVoice:  "voice/",
	MediaChat:   "chat-media/",
	MediaSelfie: "selfies/",
}

// ObjectPresigner is satisfied by *s3.PresignClient.
type ObjectPresigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// NewS3Presigner loads the AWS config for region and returns a presign client.
func NewS3Presigner(ctx context.Context, region string) (*s3.PresignClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewPresignClient(s3.NewFromConfig(cfg)), nil
}

// MediaService hands out presigned URLs so clients upload and read media
// directly from the bucket.
type MediaService struct {
	Presigner ObjectPresigner
	Bucket    string
	TTL       time.Duration
	Clock     Clock
}

// UploadTicket is a presigned PUT for one object.
type UploadTicket struct {
	URL       string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadURL presigns a PUT for a new object owned by the session user.
func (s *MediaService) UploadURL(ctx context.Context, sess *Session, kind, fileName, contentType string) (*UploadTicket, error) {
	const op = "services.media.UploadURL"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	prefix, ok := mediaPrefixes[kind]
	if !ok {
		return nil, invalidArg(op, "unknown media kind %q", kind)
	}
	name := path.Base(strings.TrimSpace(fileName))
	if name == "" || name == "." || name == "/" {
		return nil, invalidArg(op, "file name is required")
	}
	if contentType == "" {
		return nil, invalidArg(op, "content type is required")
	}

	now := s.Clock.now()
	key := prefix + userID + "/" + now.Format("20060102150405") + "-" + name
	req, err := s.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.TTL))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrTransient, err)
	}

	log.Printf("✅ Upload URL issued for %s", key)
	return &UploadTicket{URL: req.URL, Key: key, ExpiresAt: now.Add(s.TTL)}, nil
}

// ReadURL presigns a GET for an object stored under one of the media prefixes.
func (s *MediaService) ReadURL(ctx context.Context, sess *Session, key string) (string, error) {
	const op = "services.media.ReadURL"

	if _, err := requireSession(op, sess); err != nil {
		return "", err
	}
	if !isMediaKey(key) {
		return "", invalidArg(op, "unknown media key")
	}

	req, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.TTL))
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrTransient, err)
	}
	return req.URL, nil
}

func isMediaKey(key string) bool {
	if strings.Contains(key, "..") {
		return false
	}
	for _, prefix := range mediaPrefixes {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return true
		}
	}
	return false
}

// ownsKey reports whether key was issued to userID for the given kind.
func ownsKey(kind, userID, key string) bool {
	prefix, ok := mediaPrefixes[kind]
	return ok && strings.HasPrefix(key, prefix+userID+"/") && !strings.Contains(key, "..")
}
