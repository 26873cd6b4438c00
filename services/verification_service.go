package services

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// FaceComparer is satisfied by *rekognition.Client.
type FaceComparer interface {
	CompareFaces(ctx context.Context, params *rekognition.CompareFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.CompareFacesOutput, error)
}

// NewRekognitionClient loads the AWS config for region.
func NewRekognitionClient(ctx context.Context, region string) (*rekognition.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return rekognition.NewFromConfig(cfg), nil
}

// VerificationService verifies users by comparing a selfie with their
// profile photo.
type VerificationService struct {
	Faces    FaceComparer
	Profiles *UserProfileService
	Bucket   string
	// Threshold is the minimum similarity, in percent, to accept a match.
	Threshold float32
}

// VerificationResult is the outcome of a selfie check.
type VerificationResult struct {
	Verified   bool    `json:"verified"`
	Similarity float32 `json:"similarity"`
}

// VerifySelfie compares the uploaded selfie object with the profile photo and
// marks the profile verified when the faces match.
func (s *VerificationService) VerifySelfie(ctx context.Context, sess *Session, selfieKey string) (*VerificationResult, error) {
	const op = "services.verification.VerifySelfie"

	profile, err := s.Profiles.Me(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !ownsKey(MediaSelfie, profile.UserID, selfieKey) {
		return nil, invalidArg(op, "selfie must be uploaded by the profile owner")
	}
	if profile.ProfilePhoto == "" {
		return nil, invalidArg(op, "profile has no photo to compare with")
	}

	out, err := s.Faces.CompareFaces(ctx, &rekognition.CompareFacesInput{
		SourceImage: &types.Image{
			S3Object: &types.S3Object{Bucket: aws.String(s.Bucket), Name: aws.String(selfieKey)},
		},
		TargetImage: &types.Image{
			S3Object: &types.S3Object{Bucket: aws.String(s.Bucket), Name: aws.String(profile.ProfilePhoto)},
		},
		SimilarityThreshold: aws.Float32(s.Threshold),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to compare faces: %v", op, ErrTransient, err)
	}

	var best float32
	for _, fm := range out.FaceMatches {
		if sim := aws.ToFloat32(fm.Similarity); sim > best {
			best = sim
		}
	}
	result := &VerificationResult{Similarity: best, Verified: len(out.FaceMatches) > 0 && best >= s.Threshold}
	if !result.Verified {
		log.Printf("⚠️ Selfie check failed for %s (similarity %.1f)", profile.UserID, best)
		return result, nil
	}

	if _, err := s.Profiles.MarkVerified(ctx, profile.UserID); err != nil {
		return nil, err
	}
	log.Printf("✅ %s verified (similarity %.1f)", profile.UserID, best)
	return result, nil
}
