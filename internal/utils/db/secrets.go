package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// secretGetter is the part of the Secrets Manager client used here.
type secretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func newSecretsClient(ctx context.Context) (secretGetter, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// retrieveCredentials prefers DB_USERNAME/DB_PASSWORD and falls back to the
// secret named secretID.
func retrieveCredentials(ctx context.Context, secretID string) (Credentials, error) {
	username := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	if username != "" && password != "" {
		return Credentials{Username: username, Password: password}, nil
	}
	if secretID == "" {
		return Credentials{}, errors.New("no DB_USERNAME/DB_PASSWORD and no DB_SECRET_ID set")
	}

	client, err := newSecretsClient(ctx)
	if err != nil {
		return Credentials{}, err
	}
	return fetchSecret(ctx, client, secretID)
}

func fetchSecret(ctx context.Context, client secretGetter, secretID string) (Credentials, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return Credentials{}, fmt.Errorf("secret %s has no string value", secretID)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(*out.SecretString), &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode secret %s: %w", secretID, err)
	}
	return creds, nil
}
