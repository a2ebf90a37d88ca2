package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/japb1998/contacts/internal/config"
	"github.com/japb1998/contacts/pkg/awssess"
	"github.com/japb1998/contacts/pkg/credentials"
)

func newSession(cfg *config.Config) (*session.Session, error) {
	sess, err := awssess.New(awssess.Options{
		Region:   cfg.AWSRegion,
		Profile:  localProfile(cfg),
		Endpoint: cfg.DynamoDBEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return sess, nil
}

// mongoURI prefers MONGODB_URI and falls back to the Secrets Manager secret.
func mongoURI(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.MongoURI != "" {
		return cfg.MongoURI, nil
	}

	sess, err := awssess.New(awssess.Options{Region: cfg.AWSRegion, Profile: localProfile(cfg)})
	if err != nil {
		return "", fmt.Errorf("failed to create aws session: %w", err)
	}
	uri, err := credentials.NewCredentialsManager(sess).GetSecretValue(ctx, cfg.MongoSecretID, "MONGODB_URI", "uri")
	if err != nil {
		return "", fmt.Errorf("failed to resolve mongodb uri: %w", err)
	}
	return uri, nil
}

func localProfile(cfg *config.Config) string {
	if cfg.Stage == config.StageLocal {
		return cfg.AWSProfile
	}
	return ""
}
