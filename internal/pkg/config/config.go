package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (ports, bucket/table
//   names, secrets)
// - default: Values common across all environments (thresholds, page limits,
//   timezone, timeout)
// -----------------------------------------------------------------------------

type Config struct {
	Server ServerConfig
	JWT    JWTConfig
	Auth   AuthConfig
	AWS    AWSConfig
	Events EventsConfig
	Tables TablesConfig
	Runner RunnerConfig
	Query  QueryConfig
	CORS   CORSConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

type AuthConfig struct {
	AdminBootstrapKey string `envconfig:"ADMIN_BOOTSTRAP_KEY" required:"true"`
	PasswordHasher    string `envconfig:"PASSWORD_HASHER" default:"argon2id"`
}

type AWSConfig struct {
	Region         string `envconfig:"AWS_REGION" required:"true"`
	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	SQSEndpoint    string `envconfig:"SQS_ENDPOINT"`
	DynamoEndpoint string `envconfig:"DYNAMO_ENDPOINT"`
}

// HasEndpointOverrides reports whether any service points at a local emulator.
func (a AWSConfig) HasEndpointOverrides() bool {
	return a.S3Endpoint != "" || a.SQSEndpoint != "" || a.DynamoEndpoint != ""
}

type EventsConfig struct {
	Bucket string `envconfig:"S3_BUCKET_EVENTS" required:"true"`
	// Empty queue URL disables publishing (tests and single-process runs).
	QueueURL string `envconfig:"SQS_QUEUE_URL"`
}

type TablesConfig struct {
	Users         string `envconfig:"USERS_PROJECTION_TABLE" required:"true"`
	Resources     string `envconfig:"RESOURCES_PROJECTION_TABLE" required:"true"`
	Reservations  string `envconfig:"RESERVATIONS_PROJECTION_TABLE" required:"true"`
	Idempotency   string `envconfig:"IDEMPOTENCY_TABLE" required:"true"`
	ProjectionLag string `envconfig:"PROJECTION_LAG_TABLE" required:"true"`
}

// SnapshotThresholds maps a stream type to its snapshot cadence. An explicit 0
// disables snapshots for that type; a missing type falls back to the default.
type SnapshotThresholds map[string]int

func (s *SnapshotThresholds) Decode(value string) error {
	m := map[string]int{}
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		return fmt.Errorf("SNAPSHOT_BY_STREAM_TYPE must be a JSON object of ints: %w", err)
	}
	*s = m
	return nil
}

type RunnerConfig struct {
	SnapshotEveryDefault      int                `envconfig:"SNAPSHOT_EVERY_DEFAULT" default:"500"`
	SnapshotByStreamType      SnapshotThresholds `envconfig:"SNAPSHOT_BY_STREAM_TYPE"`
	VersionConflictMaxRetries int                `envconfig:"VERSION_CONFLICT_MAX_RETRIES" default:"1"`
	EmitConflictUnresolved    bool               `envconfig:"EMIT_CONCURRENCY_CONFLICT_UNRESOLVED_EVENT" default:"false"`
}

// SnapshotThreshold resolves the cadence for one stream type. Only values
// present in the map override the default, so `{"user":0}` disables user
// snapshots while resources keep the default cadence.
func (r RunnerConfig) SnapshotThreshold(streamType string) int {
	if t, ok := r.SnapshotByStreamType[streamType]; ok {
		return t
	}
	return r.SnapshotEveryDefault
}

type QueryConfig struct {
	PageLimitDefault int `envconfig:"PAGE_LIMIT_DEFAULT" default:"20"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key,x-admin-bootstrap-key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Runner.SnapshotByStreamType == nil {
		c.Runner.SnapshotByStreamType = SnapshotThresholds{"resource": 500, "user": 0}
	}
	// Misconfigured retry counts degrade to the documented default rather
	// than turning the conflict loop unbounded or negative.
	if c.Runner.VersionConflictMaxRetries < 0 {
		c.Runner.VersionConflictMaxRetries = 1
	}
	if c.Runner.SnapshotEveryDefault < 0 {
		c.Runner.SnapshotEveryDefault = 500
	}
	if c.Query.PageLimitDefault <= 0 {
		c.Query.PageLimitDefault = 20
	}
}

func NewTestConfig() Config {
	cfg := Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		JWT: JWTConfig{
			Secret:   "test-jwt-secret",
			Duration: "1h",
		},
		Auth: AuthConfig{
			AdminBootstrapKey: "bootstrap-local-key",
			PasswordHasher:    "argon2id",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Events: EventsConfig{
			Bucket: "events-test",
		},
		Tables: TablesConfig{
			Users:         "users_projection",
			Resources:     "resources_projection",
			Reservations:  "reservations_projection",
			Idempotency:   "idempotency_table",
			ProjectionLag: "projection_lag",
		},
		Runner: RunnerConfig{
			SnapshotEveryDefault:      500,
			SnapshotByStreamType:      SnapshotThresholds{"resource": 500, "user": 0},
			VersionConflictMaxRetries: 1,
		},
		Query: QueryConfig{
			PageLimitDefault: 20,
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
	}
	return cfg
}
