// Command chatrelay runs the multi-tenant conversational assistant gateway.
//
// Usage:
//
//	chatrelay serve --config config.yaml
//	chatrelay validate --tenant-config tenant.json
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joho/godotenv"

	"github.com/chatrelay/chatrelay/pkg/config"
	"github.com/chatrelay/chatrelay/pkg/forms"
	"github.com/chatrelay/chatrelay/pkg/fulfill"
	"github.com/chatrelay/chatrelay/pkg/httpclient"
	"github.com/chatrelay/chatrelay/pkg/knowledge"
	"github.com/chatrelay/chatrelay/pkg/logger"
	"github.com/chatrelay/chatrelay/pkg/model"
	"github.com/chatrelay/chatrelay/pkg/server"
	"github.com/chatrelay/chatrelay/pkg/smsmeter"
	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the gateway."`
	Validate ValidateCmd `cmd:"" help:"Validate a tenant config document."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:""`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, or json)." default:""`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("chatrelay version %s\n", version)
	return nil
}

// ValidateCmd parses a tenant config document and reports what it found.
type ValidateCmd struct {
	TenantConfig string `arg:"" name:"tenant-config" help:"Path to a tenant config JSON document." type:"path"`
}

func (c *ValidateCmd) Run() error {
	data, err := os.ReadFile(c.TenantConfig)
	if err != nil {
		return err
	}

	cfg, err := tenant.Parse(data)
	if err != nil {
		return fmt.Errorf("invalid tenant config: %w", err)
	}

	fmt.Printf("OK: %s\n", c.TenantConfig)
	fmt.Printf("  organization:  %s\n", cfg.OrganizationName)
	fmt.Printf("  branches:      %d\n", len(cfg.ConversationBranches))
	fmt.Printf("  cta defs:      %d\n", len(cfg.CTADefinitions))
	fmt.Printf("  action chips:  %d\n", len(cfg.ActionChips))
	fmt.Printf("  forms:         %d\n", len(cfg.ConversationalForms))
	fmt.Printf("  showcase:      %d\n", len(cfg.ContentShowcase))

	for name, branch := range cfg.ConversationBranches {
		for _, id := range append([]string{branch.AvailableCTAs.Primary}, branch.AvailableCTAs.Secondary...) {
			if id == "" {
				continue
			}
			if _, ok := cfg.CTADefinitions[id]; !ok {
				fmt.Printf("  warning: branch %s references undefined CTA %q\n", name, id)
			}
		}
	}
	if fb := cfg.CTASettings.FallbackBranch; fb != "" {
		if _, ok := cfg.ConversationBranches[fb]; !ok {
			fmt.Printf("  warning: fallback_branch %q is not a defined branch\n", fb)
		}
	}
	return nil
}

// ServeCmd starts the gateway.
type ServeCmd struct {
	Port int `help:"Port to listen on (overrides config)." default:"0"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	opts, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		opts.Port = c.Port
	}
	if cli.LogLevel != "" {
		opts.LogLevel = cli.LogLevel
	}
	if cli.LogFormat != "" {
		opts.LogFormat = cli.LogFormat
	}

	output := os.Stderr
	if cli.LogFile != "" {
		f, cleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			return err
		}
		defer cleanup()
		output = f
	}
	logger.Init(logger.ParseLevel(opts.LogLevel), output, opts.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	srv, err := buildServer(ctx, opts)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              opts.Address(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Streaming responses run up to the request budget; no WriteTimeout.
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Gateway listening",
			"address", opts.Address(), "config_bucket", opts.ConfigBucket)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildServer wires the AWS clients and domain components.
func buildServer(ctx context.Context, opts *config.Options) (*server.Server, error) {
	var awsOpts []func(*awsconfig.LoadOptions) error
	if opts.AWSRegion != "" {
		awsOpts = append(awsOpts, awsconfig.WithRegion(opts.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	tenants := tenant.NewStore(
		tenant.NewS3ObjectStore(s3Client, opts.ConfigBucket),
		tenant.WithTTL(opts.CacheTTL))

	kb := knowledge.NewRetriever(
		knowledge.NewBedrockKnowledgeBase(bedrockagentruntime.NewFromConfig(awsCfg)),
		knowledge.WithTTL(opts.CacheTTL))

	streamer := model.NewBedrockStreamer(bedrockruntime.NewFromConfig(awsCfg))

	poster := httpclient.New(httpclient.WithTimeout(opts.OutboundTimeout))
	meter := smsmeter.New(smsmeter.NewDynamoStore(dynamoClient, opts.SMSUsageTable))

	orchestrator := fulfill.New(
		poster,
		fulfill.NewSESMailer(sesv2.NewFromConfig(awsCfg), opts.SESFromEmail),
		fulfill.NewSNSSender(sns.NewFromConfig(awsCfg)),
		fulfill.NewLambdaInvoker(lambda.NewFromConfig(awsCfg)),
		fulfill.NewS3Archiver(s3Client),
		meter,
		fulfill.Options{
			BubbleWebhookURL: opts.BubbleWebhookURL,
			BubbleAPIKey:     opts.BubbleAPIKey,
			ArchiveBucket:    opts.ArchiveBucket,
			SMSMonthlyLimit:  int64(opts.SMSMonthlyLimit),
		})

	var records forms.RecordStore
	if opts.FormSubmissionsTable != "" {
		records = forms.NewDynamoRecordStore(dynamoClient, opts.FormSubmissionsTable)
	}
	formsHandler := forms.NewHandler(records, orchestrator)

	return server.New(opts, tenants, kb, streamer, formsHandler), nil
}

func main() {
	_ = godotenv.Load()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("chatrelay"),
		kong.Description("chatrelay - multi-tenant conversational assistant gateway"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
