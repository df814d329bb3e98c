package lambda

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"github.com/byteness/travelgate/catalog"
	"github.com/byteness/travelgate/employee"
	"github.com/byteness/travelgate/logging"
	"github.com/byteness/travelgate/metrics"
	"github.com/byteness/travelgate/notification"
	"github.com/byteness/travelgate/policy"
	"github.com/byteness/travelgate/ratelimit"
	"github.com/byteness/travelgate/request"
	"github.com/byteness/travelgate/travel"
	"github.com/byteness/travelgate/workflow"
)

// Environment variable names.
const (
	EnvEmployeeTable   = "TRAVEL_EMPLOYEE_TABLE"
	EnvApprovalTable   = "TRAVEL_APPROVAL_TABLE"
	EnvApprovalIndex   = "TRAVEL_APPROVAL_INDEX" // manager_id/status GSI; scan when unset
	EnvFlightsTable    = "TRAVEL_FLIGHTS_TABLE"
	EnvHotelsTable     = "TRAVEL_HOTELS_TABLE"
	EnvBookingsTable   = "TRAVEL_BOOKINGS_TABLE"
	EnvPolicyParameter = "TRAVEL_POLICY_PARAMETER"
	EnvRegion          = "AWS_REGION"

	EnvStrictTransitions = "TRAVEL_STRICT_TRANSITIONS" // "true" rejects decisions on non-Pending requests
	EnvLogLevel          = "TRAVEL_LOG_LEVEL"          // debug, info (default), warn, error

	EnvNotifyTopicARN       = "TRAVEL_NOTIFY_TOPIC_ARN"
	EnvWebhookURL           = "TRAVEL_WEBHOOK_URL"
	EnvWebhookSecretID      = "TRAVEL_WEBHOOK_SECRET_ID" // Secrets Manager secret holding the HMAC secret
	EnvWebhookRateLimit     = "TRAVEL_WEBHOOK_RATE_LIMIT" // deliveries per second, 0 = unlimited
	EnvCloudWatchGroup      = "TRAVEL_CLOUDWATCH_LOG_GROUP"
	EnvCloudWatchStream     = "TRAVEL_CLOUDWATCH_STREAM" // default: function name
	EnvAuditSigningSecretID = "TRAVEL_AUDIT_SIGNING_SECRET_ID"
	EnvAuditSigningKey      = "TRAVEL_AUDIT_SIGNING_KEY" // hex; deprecated, use the secret
	EnvAuditSigningKeyID    = "TRAVEL_AUDIT_SIGNING_KEY_ID"
	EnvMetricsNamespace     = "TRAVEL_METRICS_NAMESPACE" // set to publish CloudWatch metrics

	EnvHandlerMode = "TRAVEL_HANDLER_MODE" // "action-group" (default) or "http"

	EnvRequestRateLimit  = "TRAVEL_REQUEST_RATE_LIMIT"  // approval requests per employee per window, 0 disables
	EnvRequestRateWindow = "TRAVEL_REQUEST_RATE_WINDOW" // Go duration
	EnvRateLimitTable    = "TRAVEL_RATE_LIMIT_TABLE"    // shared counters; per-instance memory when unset
)

// Request throttling defaults.
const (
	DefaultRequestRateLimit  = 20
	DefaultRequestRateWindow = time.Hour
)

// Handler modes selected by EnvHandlerMode.
const (
	ModeActionGroup = "action-group"
	ModeHTTP        = "http"
)

// Config holds the collaborators of one Lambda instance. Table names and
// clients are fixed at construction and never change per request.
type Config struct {
	Directory employee.Directory
	Requests  request.Store
	Catalog   catalog.Catalog
	Bookings  catalog.BookingStore

	PolicyLoader    policy.PolicyLoader
	PolicyParameter string

	// Notifier receives approval events. Nil disables notifications.
	Notifier notification.Notifier

	// Logger receives audit entries. Defaults to a NopLogger.
	Logger logging.Logger

	// Log receives operational logs. Defaults to zap.L().
	Log *zap.Logger

	StrictTransitions bool

	// Limiter throttles create_approval_request per employee. Nil disables.
	Limiter ratelimit.Limiter

	notify *notification.NotifyStore
}

// NewService wires the workflow and service. Requests and Directory are
// required.
func (c *Config) NewService() (*travel.Service, error) {
	if c.Requests == nil {
		return nil, errors.New("approval request store is not configured")
	}
	if c.Directory == nil {
		return nil, errors.New("employee directory is not configured")
	}
	log := c.Log
	if log == nil {
		log = zap.L()
	}

	c.notify = notification.NewNotifyStore(c.Requests, c.Notifier, log)

	wf, err := workflow.New(workflow.Config{
		Store:             c.notify,
		Directory:         c.Directory,
		Logger:            c.Logger,
		StrictTransitions: c.StrictTransitions,
	})
	if err != nil {
		return nil, err
	}

	return travel.New(travel.Config{
		Directory:       c.Directory,
		Workflow:        wf,
		Catalog:         c.Catalog,
		Bookings:        c.Bookings,
		Policy:          c.PolicyLoader,
		PolicyParameter: c.PolicyParameter,
		Logger:          c.Logger,
		Log:             log,
	})
}

// LoadConfigFromEnv creates a Config from environment variables.
// This is the primary way to configure the Lambda in production.
func LoadConfigFromEnv(ctx context.Context) (*Config, error) {
	log, err := NewZapLogger(os.Getenv(EnvLogLevel))
	if err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(os.Getenv(EnvRegion)))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newConfigFromEnv(ctx, awsCfg, NewCachedSecretsLoader(awsCfg), log)
}

func newConfigFromEnv(ctx context.Context, awsCfg aws.Config, secrets SecretsLoader, log *zap.Logger) (*Config, error) {
	cfg := &Config{
		PolicyParameter: os.Getenv(EnvPolicyParameter),
		Log:             log,
	}

	employeeTable := os.Getenv(EnvEmployeeTable)
	approvalTable := os.Getenv(EnvApprovalTable)
	if employeeTable == "" {
		return nil, fmt.Errorf("%s is required", EnvEmployeeTable)
	}
	if approvalTable == "" {
		return nil, fmt.Errorf("%s is required", EnvApprovalTable)
	}
	cfg.Directory = employee.NewDynamoDBDirectory(awsCfg, employeeTable)
	cfg.Requests = request.NewDynamoDBStore(awsCfg, approvalTable, os.Getenv(EnvApprovalIndex))

	flights, hotels := os.Getenv(EnvFlightsTable), os.Getenv(EnvHotelsTable)
	if flights != "" || hotels != "" {
		cfg.Catalog = catalog.NewDynamoDBCatalog(awsCfg, flights, hotels)
	}
	if bookings := os.Getenv(EnvBookingsTable); bookings != "" {
		cfg.Bookings = catalog.NewDynamoDBBookingStore(awsCfg, bookings)
	}

	if cfg.PolicyParameter != "" {
		cfg.PolicyLoader = policy.NewCachedLoader(policy.NewLoader(awsCfg), policy.DefaultCacheTTL)
	} else {
		log.Info("no policy parameter configured, using built-in policy", zap.String("env", EnvPolicyParameter))
		cfg.PolicyLoader = policy.StaticLoader{Policy: policy.DefaultPolicy()}
	}

	strict, err := parseBool(EnvStrictTransitions)
	if err != nil {
		return nil, err
	}
	cfg.StrictTransitions = strict

	cfg.Limiter, err = configureLimiter(awsCfg, log)
	if err != nil {
		return nil, err
	}

	cfg.Notifier, err = configureNotifier(ctx, awsCfg, secrets, log)
	if err != nil {
		return nil, fmt.Errorf("failed to configure notifications: %w", err)
	}

	cfg.Logger, err = configureLogger(ctx, awsCfg, secrets, log)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}

	return cfg, nil
}

// NewZapLogger builds the production JSON logger at the given level.
// An empty level means info.
func NewZapLogger(level string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		zc.Level = lvl
	}
	return zc.Build()
}

func parseBool(name string) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", name, err)
	}
	return b, nil
}

// configureLimiter builds the approval-request throttle. Returns nil when
// the limit is 0.
func configureLimiter(awsCfg aws.Config, log *zap.Logger) (ratelimit.Limiter, error) {
	rl := ratelimit.Config{Limit: DefaultRequestRateLimit, Window: DefaultRequestRateWindow}
	if v := os.Getenv(EnvRequestRateLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid %s: %q", EnvRequestRateLimit, v)
		}
		rl.Limit = n
	}
	if rl.Limit == 0 {
		log.Info("approval request throttling disabled")
		return nil, nil
	}
	if v := os.Getenv(EnvRequestRateWindow); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s: %q", EnvRequestRateWindow, v)
		}
		rl.Window = d
	}

	if table := os.Getenv(EnvRateLimitTable); table != "" {
		log.Info("approval request throttling", zap.Int("limit", rl.Limit),
			zap.Duration("window", rl.Window), zap.String("table", table))
		return ratelimit.NewDynamoDBLimiter(awsCfg, table, rl)
	}
	log.Info("approval request throttling per instance", zap.Int("limit", rl.Limit), zap.Duration("window", rl.Window))
	return ratelimit.NewMemoryLimiter(rl)
}

// configureNotifier fans approval events out to SNS and a webhook, whichever
// are configured. Returns nil when neither is.
func configureNotifier(ctx context.Context, awsCfg aws.Config, secrets SecretsLoader, log *zap.Logger) (notification.Notifier, error) {
	var notifiers []notification.Notifier

	if topic := os.Getenv(EnvNotifyTopicARN); topic != "" {
		notifiers = append(notifiers, notification.NewSNSNotifier(awsCfg, topic))
		log.Info("SNS notifications enabled", zap.String("topic", topic))
	}

	if url := os.Getenv(EnvWebhookURL); url != "" {
		wc := notification.WebhookConfig{URL: url}
		if secretID := os.Getenv(EnvWebhookSecretID); secretID != "" {
			secret, err := secrets.GetSecret(ctx, secretID)
			if err != nil {
				return nil, fmt.Errorf("load webhook secret: %w", err)
			}
			wc.Secret = strings.TrimSpace(secret)
		}
		if v := os.Getenv(EnvWebhookRateLimit); v != "" {
			limit, err := strconv.ParseFloat(v, 64)
			if err != nil || limit < 0 {
				return nil, fmt.Errorf("invalid %s: %q", EnvWebhookRateLimit, v)
			}
			wc.RateLimit = limit
		}
		webhook, err := notification.NewWebhookNotifier(wc)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, webhook)
		log.Info("webhook notifications enabled", zap.Bool("signed", wc.Secret != ""))
	}

	switch len(notifiers) {
	case 0:
		return nil, nil
	case 1:
		return notifiers[0], nil
	}
	return notification.NewMultiNotifier(notifiers...), nil
}

// loadSigningKey returns the audit signing key, preferring Secrets Manager
// over the deprecated hex environment variable. Nil means unsigned.
func loadSigningKey(ctx context.Context, secrets SecretsLoader, log *zap.Logger) ([]byte, error) {
	secretID := os.Getenv(EnvAuditSigningSecretID)
	envKey := os.Getenv(EnvAuditSigningKey)

	var keyHex string
	switch {
	case secretID != "":
		v, err := secrets.GetSecret(ctx, secretID)
		if err != nil {
			return nil, fmt.Errorf("load audit signing key: %w", err)
		}
		if envKey != "" {
			log.Warn("both signing key sources set, using Secrets Manager",
				zap.String("secret_env", EnvAuditSigningSecretID), zap.String("ignored_env", EnvAuditSigningKey))
		}
		keyHex = strings.TrimSpace(v)
	case envKey != "":
		log.Warn("signing key from environment is deprecated", zap.String("use", EnvAuditSigningSecretID))
		keyHex = envKey
	default:
		return nil, nil
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("audit signing key must be hex-encoded: %w", err)
	}
	if len(key) < logging.MinKeyLength {
		return nil, fmt.Errorf("audit signing key must be at least %d bytes (got %d)", logging.MinKeyLength, len(key))
	}
	return key, nil
}

// configureLogger creates the audit Logger.
//   - CloudWatch group set: CloudWatchLogger, signed when a key is configured
//   - otherwise SignedLogger or JSONLogger to stdout
//
// When a metrics namespace is set, entries are also counted in CloudWatch.
func configureLogger(ctx context.Context, awsCfg aws.Config, secrets SecretsLoader, log *zap.Logger) (logging.Logger, error) {
	key, err := loadSigningKey(ctx, secrets, log)
	if err != nil {
		return nil, err
	}
	var sign *logging.SignatureConfig
	if key != nil {
		sign = &logging.SignatureConfig{KeyID: os.Getenv(EnvAuditSigningKeyID), SecretKey: key}
	}

	var audit logging.Logger
	if group := os.Getenv(EnvCloudWatchGroup); group != "" {
		stream := os.Getenv(EnvCloudWatchStream)
		if stream == "" {
			stream = os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
		}
		audit = logging.NewCloudWatchLogger(awsCfg, &logging.CloudWatchConfig{
			LogGroupName:  group,
			LogStreamName: stream,
			SignConfig:    sign,
			ErrorLog:      log,
		})
		log.Info("audit logging to CloudWatch", zap.String("group", group), zap.Bool("signed", sign != nil))
	} else if sign != nil {
		audit = logging.NewSignedLogger(os.Stdout, sign)
		log.Info("signed audit logging to stdout", zap.String("key_id", sign.KeyID))
	} else {
		audit = logging.NewJSONLogger(os.Stdout)
	}

	if ns := os.Getenv(EnvMetricsNamespace); ns != "" {
		recorder := metrics.NewRecorder(awsCfg, metrics.RecorderConfig{Namespace: ns, ErrorLog: log})
		log.Info("CloudWatch metrics enabled", zap.String("namespace", ns))
		return logging.NewMultiLogger(audit, recorder), nil
	}
	return audit, nil
}
