// Package cloud imports connection credentials from cloud secret stores:
// AWS SSM Parameter Store, AWS Secrets Manager and Kubernetes kubeconfig
// contexts.
package cloud

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/serialexp/dbui/pkg/dbuierrors"
)

// AWSProfile is a named profile from the shared AWS config files.
type AWSProfile struct {
	Name   string  `json:"name"`
	Region *string `json:"region"`
}

// AWSParameter describes one SSM parameter without its value.
type AWSParameter struct {
	Name         string  `json:"name"`
	Type         string  `json:"parameter_type"`
	LastModified *string `json:"last_modified"`
}

// AWSSecret describes one Secrets Manager secret without its value.
type AWSSecret struct {
	Name         string  `json:"name"`
	ARN          string  `json:"arn"`
	Description  *string `json:"description"`
	LastModified *string `json:"last_modified"`
}

// AWSFiles locates the shared credentials and config files. Tests point it
// at temporary files.
type AWSFiles struct {
	CredentialsPath string
	ConfigPath      string
}

// DefaultAWSFiles resolves ~/.aws/credentials and ~/.aws/config.
func DefaultAWSFiles() AWSFiles {
	home, _ := os.UserHomeDir()
	return AWSFiles{
		CredentialsPath: filepath.Join(home, ".aws", "credentials"),
		ConfigPath:      filepath.Join(home, ".aws", "config"),
	}
}

// ListAWSProfiles returns the profiles named in either shared file, sorted
// by name. Regions come from the config file's per-profile region keys.
func ListAWSProfiles(files AWSFiles) ([]AWSProfile, error) {
	credsData, credsErr := os.ReadFile(files.CredentialsPath)
	configData, configErr := os.ReadFile(files.ConfigPath)
	if credsErr != nil && configErr != nil {
		return nil, dbuierrors.New(dbuierrors.ErrorTypeConfig,
			"AWS credentials not found. Ensure ~/.aws/credentials or ~/.aws/config exists.")
	}

	profiles := map[string]*AWSProfile{}
	ensure := func(name string) *AWSProfile {
		if p, ok := profiles[name]; ok {
			return p
		}
		p := &AWSProfile{Name: name}
		profiles[name] = p
		return p
	}

	if credsErr == nil {
		for _, line := range strings.Split(string(credsData), "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
				ensure(trimmed[1 : len(trimmed)-1])
			}
		}
	}

	if configErr == nil {
		var current *AWSProfile
		for _, line := range strings.Split(string(configData), "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
				section := trimmed[1 : len(trimmed)-1]
				name := strings.TrimPrefix(section, "profile ")
				current = ensure(name)
			case current != nil && strings.HasPrefix(trimmed, "region"):
				if _, value, ok := strings.Cut(trimmed, "="); ok {
					region := strings.TrimSpace(value)
					current.Region = &region
				}
			}
		}
	}

	result := make([]AWSProfile, 0, len(profiles))
	for _, p := range profiles {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// awsError translates SDK failures into the messages shown to the user.
// Permission problems get an actionable hint instead of the raw API error.
func awsError(err error, service string) error {
	msg := err.Error()
	if strings.Contains(msg, "AccessDenied") || strings.Contains(msg, "not authorized") {
		return dbuierrors.Newf(dbuierrors.ErrorTypeConnection,
			"Access denied. Check IAM permissions for %s.", service)
	}
	return dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "Network error")
}

// ListSSMParameters pages through DescribeParameters, optionally filtered
// to names beginning with pathPrefix.
func ListSSMParameters(ctx context.Context, profile, region string, pathPrefix *string) ([]AWSParameter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithSharedConfigProfile(profile), awsconfig.WithRegion(region))
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConfig, "failed to load AWS config")
	}
	client := ssm.NewFromConfig(cfg)

	params := []AWSParameter{}
	var nextToken *string
	for {
		input := &ssm.DescribeParametersInput{NextToken: nextToken}
		if pathPrefix != nil {
			input.ParameterFilters = []ssmtypes.ParameterStringFilter{{
				Key:    strPtr("Name"),
				Option: strPtr("BeginsWith"),
				Values: []string{*pathPrefix},
			}}
		}
		out, err := client.DescribeParameters(ctx, input)
		if err != nil {
			return nil, awsError(err, "SSM Parameter Store")
		}
		for _, p := range out.Parameters {
			param := AWSParameter{Type: string(p.Type)}
			if p.Name != nil {
				param.Name = *p.Name
			}
			if p.LastModifiedDate != nil {
				modified := p.LastModifiedDate.String()
				param.LastModified = &modified
			}
			params = append(params, param)
		}
		nextToken = out.NextToken
		if nextToken == nil {
			return params, nil
		}
	}
}

// GetSSMParameterValue fetches one parameter with decryption.
func GetSSMParameterValue(ctx context.Context, profile, region, name string) (string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithSharedConfigProfile(profile), awsconfig.WithRegion(region))
	if err != nil {
		return "", dbuierrors.Wrap(err, dbuierrors.ErrorTypeConfig, "failed to load AWS config")
	}
	client := ssm.NewFromConfig(cfg)

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: boolPtr(true),
	})
	if err != nil {
		return "", awsError(err, "SSM Parameter Store")
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", dbuierrors.New(dbuierrors.ErrorTypeNotFound, "Parameter value not found")
	}
	return *out.Parameter.Value, nil
}

// ListAWSSecrets pages through Secrets Manager ListSecrets.
func ListAWSSecrets(ctx context.Context, profile, region string) ([]AWSSecret, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithSharedConfigProfile(profile), awsconfig.WithRegion(region))
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConfig, "failed to load AWS config")
	}
	client := secretsmanager.NewFromConfig(cfg)

	secrets := []AWSSecret{}
	var nextToken *string
	for {
		out, err := client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{NextToken: nextToken})
		if err != nil {
			return nil, awsError(err, "Secrets Manager")
		}
		for _, s := range out.SecretList {
			secret := AWSSecret{Description: s.Description}
			if s.Name != nil {
				secret.Name = *s.Name
			}
			if s.ARN != nil {
				secret.ARN = *s.ARN
			}
			if s.LastChangedDate != nil {
				modified := s.LastChangedDate.String()
				secret.LastModified = &modified
			}
			secrets = append(secrets, secret)
		}
		nextToken = out.NextToken
		if nextToken == nil {
			return secrets, nil
		}
	}
}

// GetAWSSecretValue fetches one secret's string value.
func GetAWSSecretValue(ctx context.Context, profile, region, secretID string) (string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithSharedConfigProfile(profile), awsconfig.WithRegion(region))
	if err != nil {
		return "", dbuierrors.Wrap(err, dbuierrors.ErrorTypeConfig, "failed to load AWS config")
	}
	client := secretsmanager.NewFromConfig(cfg)

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &secretID})
	if err != nil {
		return "", awsError(err, "Secrets Manager")
	}
	if out.SecretString == nil {
		return "", dbuierrors.New(dbuierrors.ErrorTypeUnsupported, "Secret is binary, not a string")
	}
	return *out.SecretString, nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
