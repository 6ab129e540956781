package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/ruteri/installer-provisioning-backend/interfaces"
)

// SecretsManagerProvider reads the secret from AWS Secrets Manager. When key is
// set the secret string is decoded as a JSON object and key selects the field.
type SecretsManagerProvider struct {
	client   *secretsmanager.SecretsManager
	secretID string
	key      string
	log      *slog.Logger
}

// NewSecretsManagerProvider creates a provider using the default AWS credential chain.
func NewSecretsManagerProvider(secretID, region, endpoint, key string, log *slog.Logger) (*SecretsManagerProvider, error) {
	if secretID == "" {
		return nil, fmt.Errorf("%w: empty secret id", interfaces.ErrInvalidSecretURI)
	}
	if region == "" {
		region = "us-east-1"
	}

	cfg := aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &SecretsManagerProvider{
		client:   secretsmanager.New(sess),
		secretID: secretID,
		key:      key,
		log:      log,
	}, nil
}

// awssm://secret-id?region=eu-west-1&key=jwt&endpoint=http://localhost:4566
func newSecretsManagerProviderFromURL(u *url.URL, log *slog.Logger) (*SecretsManagerProvider, error) {
	query := u.Query()
	secretID := u.Host + strings.TrimSuffix(u.Path, "/")
	return NewSecretsManagerProvider(secretID, query.Get("region"), query.Get("endpoint"), query.Get("key"), log)
}

func (p *SecretsManagerProvider) Secret(ctx context.Context) ([]byte, error) {
	out, err := p.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretID),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrSecretNotFound, p.secretID)
		}
		p.log.Error("Failed to read secret from Secrets Manager", slog.String("secret_id", p.secretID), "err", err)
		return nil, fmt.Errorf("failed to read secret %s: %w", p.secretID, err)
	}

	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(aws.StringValue(out.SecretString))
	case out.SecretBinary != nil:
		raw = out.SecretBinary
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s has no value", interfaces.ErrSecretNotFound, p.secretID)
	}
	if p.key == "" {
		return raw, nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("secret %s is not a JSON object: %w", p.secretID, err)
	}
	value, ok := fields[p.key].(string)
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: key %q in %s", interfaces.ErrSecretNotFound, p.key, p.secretID)
	}
	return []byte(value), nil
}

func (p *SecretsManagerProvider) Name() string {
	return "awssm-" + p.secretID
}
