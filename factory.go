// Package sessions provides the default aws.Config-backed session factory.
//
// The AWS SDK for Go has no string-keyed client constructor, so the default
// factory mints handles through builders the caller registers per kind and
// name. Each builder receives the session's aws.Config with the target
// region applied and returns the constructed handle.
package sessions

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// HandleBuilder constructs a handle from a region-scoped aws.Config.
//
// Example:
//
//	sessions.WithClientBuilder("sts", func(cfg aws.Config, _ string) (any, error) {
//	    return sts.NewFromConfig(cfg), nil
//	})
type HandleBuilder func(cfg aws.Config, region string) (any, error)

// FactoryOption is a functional option for ConfigSessionFactory.
type FactoryOption func(*ConfigSessionFactory)

// WithClientBuilder registers a builder for client handles of the given name.
func WithClientBuilder(name string, builder HandleBuilder) FactoryOption {
	return func(f *ConfigSessionFactory) {
		f.clients[name] = builder
	}
}

// WithResourceBuilder registers a builder for resource handles of the given
// name.
func WithResourceBuilder(name string, builder HandleBuilder) FactoryOption {
	return func(f *ConfigSessionFactory) {
		f.resources[name] = builder
	}
}

// WithConfigOptions appends extra load options applied whenever the factory
// loads an AWS configuration, for both the default identity and assumed
// identities. Useful for shared profiles or custom endpoints.
func WithConfigOptions(opts ...func(*config.LoadOptions) error) FactoryOption {
	return func(f *ConfigSessionFactory) {
		f.loadOptions = append(f.loadOptions, opts...)
	}
}

// ConfigSessionFactory is the default SessionFactory. Sessions it mints wrap
// an aws.Config: the default identity resolves through the SDK's standard
// credential chain, while delegated identities use a static provider holding
// the snapshot the session was built from.
type ConfigSessionFactory struct {
	clients     map[string]HandleBuilder
	resources   map[string]HandleBuilder
	loadOptions []func(*config.LoadOptions) error
}

// NewConfigSessionFactory creates a factory with the given builders.
func NewConfigSessionFactory(opts ...FactoryOption) *ConfigSessionFactory {
	f := &ConfigSessionFactory{
		clients:   make(map[string]HandleBuilder),
		resources: make(map[string]HandleBuilder),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewSession mints a session for the given credential snapshot, or for the
// default identity when creds is nil.
func (f *ConfigSessionFactory) NewSession(ctx context.Context, creds *Credentials) (Session, error) {
	loadOpts := make([]func(*config.LoadOptions) error, 0, len(f.loadOptions)+1)
	loadOpts = append(loadOpts, f.loadOptions...)
	if creds != nil {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				creds.AccessKeyID,
				creds.SecretAccessKey,
				creds.SessionToken,
			),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &awsSession{cfg: cfg, factory: f}, nil
}

// awsSession is a Session backed by an aws.Config.
type awsSession struct {
	cfg     aws.Config
	factory *ConfigSessionFactory
}

// Construct builds a handle through the registered builder, handing it a
// copy of the session config with the target region applied.
func (s *awsSession) Construct(_ context.Context, kind HandleKind, name, region string) (any, error) {
	var builders map[string]HandleBuilder
	switch kind {
	case KindClient:
		builders = s.factory.clients
	case KindResource:
		builders = s.factory.resources
	default:
		return nil, fmt.Errorf("unknown handle kind %q", kind)
	}

	builder, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrNoBuilder, kind, name)
	}

	cfg := s.cfg
	cfg.Region = region
	return builder(cfg, region)
}

// AvailableRegions returns the commercial-partition region identifiers. The
// SDK exposes no runtime region enumeration, so the list is package data;
// service granularity is not available.
func (s *awsSession) AvailableRegions(_ context.Context, serviceName string) ([]string, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}
	regions := make([]string, len(partitionRegions))
	copy(regions, partitionRegions)
	return regions, nil
}

// loadDefaultConfig loads the ambient AWS configuration.
func loadDefaultConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx)
}

// partitionRegions lists the standard (aws) partition regions in stable
// order.
var partitionRegions = []string{
	"af-south-1",
	"ap-east-1",
	"ap-northeast-1",
	"ap-northeast-2",
	"ap-northeast-3",
	"ap-south-1",
	"ap-south-2",
	"ap-southeast-1",
	"ap-southeast-2",
	"ap-southeast-3",
	"ap-southeast-4",
	"ca-central-1",
	"ca-west-1",
	"eu-central-1",
	"eu-central-2",
	"eu-north-1",
	"eu-south-1",
	"eu-south-2",
	"eu-west-1",
	"eu-west-2",
	"eu-west-3",
	"il-central-1",
	"me-central-1",
	"me-south-1",
	"sa-east-1",
	"us-east-1",
	"us-east-2",
	"us-west-1",
	"us-west-2",
}
