package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// DefaultHTTPTimeout bounds every AWS API call.
const DefaultHTTPTimeout = 30 * time.Second

var (
	// errRegionRequired is returned when no region is configured.
	errRegionRequired = errors.New("region must be provided")
	// errInvalidEndpoint is returned when the endpoint override is not an absolute URL.
	errInvalidEndpoint = errors.New("endpoint must be an absolute http(s) URL")
)

// Settings select the AWS account and region to talk to.
// Credentials always come from the default chain (environment, shared files, instance role).
type Settings struct {
	// Region is the AWS region, e.g. us-west-2.
	Region string
	// Profile is an optional shared config profile.
	Profile string
	// Endpoint optionally overrides service endpoints (e.g. a local emulator).
	Endpoint string
}

// Validate checks the settings before any client is built.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Region) == "" {
		return errRegionRequired
	}

	if s.Endpoint == "" {
		return nil
	}

	u, err := url.ParseRequestURI(s.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", errInvalidEndpoint, s.Endpoint)
	}

	return nil
}

// LoadConfig resolves an aws.Config for the settings.
func LoadConfig(ctx context.Context, s Settings) (aws.Config, error) {
	if err := s.Validate(); err != nil {
		return aws.Config{}, err
	}

	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.Region),
		awsconfig.WithHTTPClient(&http.Client{Timeout: DefaultHTTPTimeout}),
	}

	if s.Profile != "" {
		options = append(options, awsconfig.WithSharedConfigProfile(s.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}

	if s.Endpoint != "" {
		cfg.BaseEndpoint = aws.String(s.Endpoint)
	}

	return cfg, nil
}
