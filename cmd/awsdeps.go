// Package cmd provides CLI commands for ssopipe.
// This file defines the shared AWS client infrastructure used by
// PersistentPreRunE to initialize SDK clients once and share them
// across subcommands via context.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/accessanalyzer"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/nicholasgasior/ssopipe/internal/awssvc"
	"github.com/nicholasgasior/ssopipe/internal/cli"
	"github.com/nicholasgasior/ssopipe/internal/config"
	"github.com/nicholasgasior/ssopipe/internal/identity"
)

// awsClients holds pre-initialized AWS SDK clients and resolved identity.
// Created once in PersistentPreRunE and stored on the command context.
type awsClients struct {
	ssoadminClient      *ssoadmin.Client
	organizationsClient *organizations.Client
	identitystoreClient *identitystore.Client
	iamClient           *iam.Client
	analyzerClient      *accessanalyzer.Client
	owner               string // resolved caller identity name (managed-by tag on created permission sets)
	ownerARN            string // resolved caller identity ARN

	// pipelineConfig holds the loaded ssopipe preferences: region, template
	// folders, concurrency, and log directory.
	pipelineConfig *config.Config
}

// awsClientsKey is the context key for storing awsClients.
type awsClientsKey struct{}

// awsClientsFromContext retrieves the awsClients from the context.
// Returns nil if no clients have been stored.
func awsClientsFromContext(ctx context.Context) *awsClients {
	v, _ := ctx.Value(awsClientsKey{}).(*awsClients)
	return v
}

// contextWithAWSClients returns a new context carrying the given awsClients.
func contextWithAWSClients(ctx context.Context, clients *awsClients) context.Context {
	return context.WithValue(ctx, awsClientsKey{}, clients)
}

// credentialErrorKeywords are substrings found in AWS SDK credential errors.
// When any of these appear we replace the raw SDK chain with a single
// actionable message. Used by PersistentPreRunE.
var credentialErrorKeywords = []string{
	"get credentials",
	"NoCredentialProviders",
	"no EC2 IMDS role found",
	"failed to refresh cached credentials",
	"credential",
}

// isCredentialError reports whether err looks like an AWS credential failure.
func isCredentialError(err error) bool {
	msg := err.Error()
	for _, kw := range credentialErrorKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// commandNeedsAWS returns true if the command requires AWS client
// initialization. Commands that operate locally (version, config, completion,
// help) return false.
func commandNeedsAWS(cmd *cobra.Command) bool {
	// Check the full command path so that "ssopipe completion bash" is
	// excluded by detecting the "completion" ancestor — cmd.Name() alone
	// would return the shell name ("bash", "zsh", …) which is ambiguous.
	path := cmd.CommandPath()
	if strings.Contains(path, " completion") {
		return false
	}
	switch cmd.Name() {
	case "version", "config", "set", "get", "help":
		return false
	default:
		return true
	}
}

// initAWSClients loads the AWS SDK config, creates all SDK clients,
// resolves the caller identity, and loads the ssopipe config. Returns
// an awsClients struct ready to be stored on the command context.
func initAWSClients(ctx context.Context) (*awsClients, error) {
	var opts []func(*awscfg.LoadOptions) error

	cliCtx := cli.FromContext(ctx)

	// Wire --debug flag to AWS SDK request/response logging.
	if cliCtx != nil && cliCtx.Debug {
		opts = append(opts, awscfg.WithClientLogMode(
			aws.LogRequest|aws.LogResponse,
		))
	}

	// Wire --profile flag to AWS SDK shared config profile selection.
	// Empty string means no override; the SDK falls back to AWS_PROFILE or
	// the default profile.
	if cliCtx != nil && cliCtx.Profile != "" {
		opts = append(opts, awscfg.WithSharedConfigProfile(cliCtx.Profile))
	}

	// Load ssopipe preferences early so we can wire the region before calling
	// LoadDefaultConfig. This ensures the SDK uses the configured region when
	// no AWS_DEFAULT_REGION environment variable is set.
	pipelineCfg, err := config.Load(config.DefaultConfigDir())
	if err != nil {
		return nil, fmt.Errorf("load ssopipe config: %w", err)
	}

	// Wire --concurrency flag to override the config value (§10).
	if cliCtx != nil && cliCtx.Concurrency > 0 {
		pipelineCfg.Concurrency = cliCtx.Concurrency
	}

	// Wire the ssopipe config region to AWS SDK region selection. An empty
	// Region means no override; the SDK resolves region from environment
	// variables, shared config, and EC2 instance metadata.
	if pipelineCfg.Region != "" {
		opts = append(opts, awscfg.WithRegion(pipelineCfg.Region))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	// Resolve caller identity for audit logging.
	stsClient := sts.NewFromConfig(cfg)
	resolver := identity.NewResolver(stsClient)
	owner, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	// Every client shares the adaptive retryer so a throttling burst on any
	// service is absorbed the same way (§4.1 SDK Adapter).
	retryer := func() aws.RetryerV2 { return awssvc.NewRetryer() }

	return &awsClients{
		ssoadminClient: ssoadmin.NewFromConfig(cfg, func(o *ssoadmin.Options) {
			o.Retryer = retryer()
		}),
		organizationsClient: organizations.NewFromConfig(cfg, func(o *organizations.Options) {
			o.Retryer = retryer()
		}),
		identitystoreClient: identitystore.NewFromConfig(cfg, func(o *identitystore.Options) {
			o.Retryer = retryer()
		}),
		iamClient: iam.NewFromConfig(cfg, func(o *iam.Options) {
			o.Retryer = retryer()
		}),
		analyzerClient: accessanalyzer.NewFromConfig(cfg, func(o *accessanalyzer.Options) {
			o.Retryer = retryer()
		}),
		owner:          owner.Name,
		ownerARN:       owner.ARN,
		pipelineConfig: pipelineCfg,
	}, nil
}
