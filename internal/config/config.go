// Package config loads monitor settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrClusterRequired is returned when no cluster identifier is configured.
// The monitor must not start without one.
var ErrClusterRequired = errors.New("cluster is required (env: DDF_PIPELINE_CLUSTER)")

// Runtime names accepted for the pipeline and upload runners.
const (
	RuntimeExec       = "exec"
	RuntimeDocker     = "docker"
	RuntimeKubernetes = "kubernetes"
	RuntimeGCS        = "gcs"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string
	// Bound for every status database query
	QueryTimeout time.Duration

	// Cluster whose fields are monitored
	Cluster string
	// Base working directory handed to the pipeline and upload runners
	BaseDir string
	// Downloads stop once this many fields are queued
	QueueLimit int
	// Sleep between two monitor cycles
	PollInterval time.Duration

	// Port for /status, /healthz, /readyz and /metrics
	HTTPPort int
	// Requests per second allowed on /status, 0 disables the limit
	StatusRateLimit float64

	LogLevel     string
	OTELEndpoint string

	PipelineRuntime string
	PipelineCommand []string
	PipelineImage   string

	UploadRuntime string
	UploadCommand []string
	UploadBucket  string
	UploadPrefix  string

	KubernetesNamespace      string
	KubernetesServiceAccount string
	KubernetesCPULimit       string
	KubernetesMemoryLimit    string
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"database_url":               "DATABASE_URL",
	"query_timeout":              "QUERY_TIMEOUT",
	"cluster":                    "DDF_PIPELINE_CLUSTER",
	"base_dir":                   "DDF_BASEDIR",
	"queue_limit":                "QUEUE_LIMIT",
	"poll_interval":              "POLL_INTERVAL",
	"http_port":                  "PORT",
	"status_rate_limit":          "STATUS_RATE_LIMIT",
	"log_level":                  "LOG_LEVEL",
	"otel_endpoint":              "OTEL_EXPORTER_OTLP_ENDPOINT",
	"pipeline_runtime":           "PIPELINE_RUNTIME",
	"pipeline_command":           "PIPELINE_COMMAND",
	"pipeline_image":             "PIPELINE_IMAGE",
	"upload_runtime":             "UPLOAD_RUNTIME",
	"upload_command":             "UPLOAD_COMMAND",
	"upload_bucket":              "UPLOAD_BUCKET",
	"upload_prefix":              "UPLOAD_PREFIX",
	"kubernetes_namespace":       "KUBERNETES_NAMESPACE",
	"kubernetes_service_account": "KUBERNETES_SERVICE_ACCOUNT",
	"kubernetes_cpu_limit":       "KUBERNETES_CPU_LIMIT",
	"kubernetes_memory_limit":    "KUBERNETES_MEMORY_LIMIT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("query_timeout", 30*time.Second)
	v.SetDefault("base_dir", ".")
	v.SetDefault("queue_limit", 10)
	v.SetDefault("poll_interval", 300*time.Second)
	v.SetDefault("http_port", 6162)
	v.SetDefault("status_rate_limit", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("otel_endpoint", "localhost:4317")
	v.SetDefault("pipeline_runtime", RuntimeExec)
	v.SetDefault("pipeline_command", "run_pipeline {id} {basedir}")
	v.SetDefault("pipeline_image", "ddf-pipeline:latest")
	v.SetDefault("upload_runtime", RuntimeExec)
	v.SetDefault("upload_command", "upload {id} {basedir}")
	v.SetDefault("upload_prefix", "ddf")
	v.SetDefault("kubernetes_namespace", "default")
	v.SetDefault("kubernetes_cpu_limit", "500m")
	v.SetDefault("kubernetes_memory_limit", "256Mi")
}

// Load reads configuration from the file at path (or ./ddfmonitor.yaml when
// path is empty and the file exists), then applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("ddfmonitor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		DatabaseURL:              v.GetString("database_url"),
		QueryTimeout:             v.GetDuration("query_timeout"),
		Cluster:                  strings.TrimSpace(v.GetString("cluster")),
		BaseDir:                  v.GetString("base_dir"),
		QueueLimit:               v.GetInt("queue_limit"),
		PollInterval:             v.GetDuration("poll_interval"),
		HTTPPort:                 v.GetInt("http_port"),
		StatusRateLimit:          v.GetFloat64("status_rate_limit"),
		LogLevel:                 v.GetString("log_level"),
		OTELEndpoint:             v.GetString("otel_endpoint"),
		PipelineRuntime:          v.GetString("pipeline_runtime"),
		PipelineCommand:          strings.Fields(v.GetString("pipeline_command")),
		PipelineImage:            v.GetString("pipeline_image"),
		UploadRuntime:            v.GetString("upload_runtime"),
		UploadCommand:            strings.Fields(v.GetString("upload_command")),
		UploadBucket:             v.GetString("upload_bucket"),
		UploadPrefix:             v.GetString("upload_prefix"),
		KubernetesNamespace:      v.GetString("kubernetes_namespace"),
		KubernetesServiceAccount: v.GetString("kubernetes_service_account"),
		KubernetesCPULimit:       v.GetString("kubernetes_cpu_limit"),
		KubernetesMemoryLimit:    v.GetString("kubernetes_memory_limit"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Cluster == "" {
		return ErrClusterRequired
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required (env: DATABASE_URL)")
	}
	if c.QueueLimit <= 0 {
		return fmt.Errorf("invalid queue_limit %d: must be positive", c.QueueLimit)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll_interval %v: must be positive", c.PollInterval)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("invalid query_timeout %v: must be positive", c.QueryTimeout)
	}

	switch c.PipelineRuntime {
	case RuntimeExec, RuntimeDocker, RuntimeKubernetes:
	default:
		return fmt.Errorf("invalid pipeline_runtime %q: must be exec, docker or kubernetes", c.PipelineRuntime)
	}
	if len(c.PipelineCommand) == 0 {
		return fmt.Errorf("pipeline_command must not be empty")
	}

	switch c.UploadRuntime {
	case RuntimeExec:
		if len(c.UploadCommand) == 0 {
			return fmt.Errorf("upload_command must not be empty")
		}
	case RuntimeGCS:
		if c.UploadBucket == "" {
			return fmt.Errorf("upload_bucket is required when upload_runtime is gcs")
		}
	default:
		return fmt.Errorf("invalid upload_runtime %q: must be exec or gcs", c.UploadRuntime)
	}

	return nil
}
