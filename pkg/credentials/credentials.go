package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

type CredentialsManager struct {
	manager secretsmanageriface.SecretsManagerAPI
}

var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrKeyNotFound    = errors.New("secret key not found")
)

func NewCredentialsManager(sess *session.Session) *CredentialsManager {
	return NewWithClient(secretsmanager.New(sess))
}

func NewWithClient(api secretsmanageriface.SecretsManagerAPI) *CredentialsManager {
	return &CredentialsManager{
		manager: api,
	}
}

func (cm *CredentialsManager) GetSecret(ctx context.Context, secretArn string) (string, error) {
	input := &secretsmanager.GetSecretValueInput{
		SecretId:     &secretArn,
		VersionStage: aws.String("AWSCURRENT"),
	}
	out, err := cm.manager.GetSecretValueWithContext(ctx, input)
	var t *secretsmanager.ResourceNotFoundException
	if errors.As(err, &t) {
		return "", ErrSecretNotFound
	}
	if err != nil {
		return "", err
	}
	return aws.StringValue(out.SecretString), nil
}

// GetSecretValue resolves a secret that is either a plain string or a JSON
// object. For JSON secrets the first present key wins.
func (cm *CredentialsManager) GetSecretValue(ctx context.Context, secretArn string, keys ...string) (string, error) {
	raw, err := cm.GetSecret(ctx, secretArn)
	if err != nil {
		return "", err
	}

	var secret map[string]any
	if err := json.Unmarshal([]byte(raw), &secret); err != nil {
		return raw, nil
	}

	for _, k := range keys {
		if v, ok := secret[k].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrKeyNotFound, keys)
}
