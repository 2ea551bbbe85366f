package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/google/uuid"
)

// CloudFrontService invalidates cached card assets after regeneration so
// customers never scan a stale card image.
type CloudFrontService struct {
	client         *cloudfront.Client
	distributionID string
}

// NewCloudFrontService constructs the service from the default AWS config
// chain and CLOUDFRONT_DISTRIBUTION_ID. Returns an error when the
// distribution is not configured; callers treat that as "invalidation off".
func NewCloudFrontService(ctx context.Context) (*CloudFrontService, error) {
	distributionID := os.Getenv("CLOUDFRONT_DISTRIBUTION_ID")
	if distributionID == "" {
		return nil, errors.New("cloudfront not configured (CLOUDFRONT_DISTRIBUTION_ID)")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &CloudFrontService{
		client:         cloudfront.NewFromConfig(cfg),
		distributionID: distributionID,
	}, nil
}

// InvalidatePaths submits an invalidation for the given paths (e.g.
// "/cards/ORD-123/*").
func (s *CloudFrontService) InvalidatePaths(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	items := make([]string, len(paths))
	copy(items, paths)

	_, err := s.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(s.distributionID),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String(fmt.Sprintf("tunecards-%d-%s", time.Now().Unix(), uuid.NewString()[:8])),
			Paths: &types.Paths{
				Quantity: aws.Int32(int32(len(items))),
				Items:    items,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("cloudfront invalidation failed: %w", err)
	}

	log.Printf("cloudfront invalidation submitted for %d paths", len(items))
	return nil
}
