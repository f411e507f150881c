/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package service

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"

	"github.com/sql-instance-planner/api/v1alpha1"
	"github.com/sql-instance-planner/internal/normalizer"
	"github.com/sql-instance-planner/internal/storage"
)

// Environment variable names read by ConfigFromEnv
const (
	EnvProject        = "SQLPLAN_PROJECT"
	EnvRegion         = "SQLPLAN_REGION"
	EnvPolicy         = "SQLPLAN_POLICY"
	EnvPolicyFile     = "SQLPLAN_POLICY_FILE"
	EnvStrict         = "SQLPLAN_STRICT"
	EnvPasswordLength = "SQLPLAN_PASSWORD_LENGTH"
	EnvStorageURL     = "SQLPLAN_STORAGE_URL"
	EnvCompression    = "SQLPLAN_COMPRESSION"
	EnvListenAddr     = "SQLPLAN_LISTEN_ADDR"
	EnvLogLevel       = "SQLPLAN_LOG_LEVEL"
)

// DefaultListenAddr is the address the HTTP server binds when none is configured
const DefaultListenAddr = ":8080"

// Config holds the settings shared by the CLI and the HTTP server.
type Config struct {
	// Project is injected into instances that do not name one
	Project string

	// Region overrides the policy default region
	Region string

	// Policy is the preset name, default or secure
	Policy string

	// PolicyFile is a PlanPolicy YAML document overlaid on the preset
	PolicyFile string

	// PolicySpec, when set, replaces the policy file. The CLI sets it from a
	// PlanPolicy document found next to the instance.
	PolicySpec *v1alpha1.PlanPolicySpec

	// Strict forces unsupported fields to be rejected
	Strict bool

	// PasswordLength overrides the policy password length when non-zero
	PasswordLength int32

	// StorageURL is the default publish target
	StorageURL  string
	Compression string

	ListenAddr string
	LogLevel   string

	Logger logr.Logger
}

// ConfigFromEnv creates a Config from environment variables.
// Environment variable names:
//   - SQLPLAN_PROJECT: default project
//   - SQLPLAN_REGION: default region
//   - SQLPLAN_POLICY: default|secure
//   - SQLPLAN_POLICY_FILE: path to a PlanPolicy document
//   - SQLPLAN_STRICT: reject unsupported fields (true|false)
//   - SQLPLAN_PASSWORD_LENGTH: generated password length (16-128)
//   - SQLPLAN_STORAGE_URL: publish target, e.g. gs://bucket/plans
//   - SQLPLAN_COMPRESSION: none|gzip|zstd|lz4
//   - SQLPLAN_LISTEN_ADDR: HTTP listen address
//   - SQLPLAN_LOG_LEVEL: debug|info
func ConfigFromEnv(getEnv func(string) string) (*Config, error) {
	cfg := &Config{
		Project:     getEnv(EnvProject),
		Region:      getEnv(EnvRegion),
		Policy:      getEnv(EnvPolicy),
		PolicyFile:  getEnv(EnvPolicyFile),
		StorageURL:  getEnv(EnvStorageURL),
		Compression: getEnv(EnvCompression),
		ListenAddr:  getEnv(EnvListenAddr),
		LogLevel:    getEnv(EnvLogLevel),
	}

	if s := getEnv(EnvStrict); s != "" {
		strict, err := strconv.ParseBool(s)
		if err != nil {
			return nil, &ValidationError{Field: EnvStrict, Message: "must be true or false"}
		}
		cfg.Strict = strict
	}

	if s := getEnv(EnvPasswordLength); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, &ValidationError{Field: EnvPasswordLength, Message: "invalid number"}
		}
		cfg.PasswordLength = int32(n)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Compression == "" {
		cfg.Compression = string(storage.CompressionNone)
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing default file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c == nil {
		return &ValidationError{Field: "config", Message: "config is nil"}
	}
	if c.Policy != "" {
		if _, err := normalizer.PresetPolicy(c.Policy); err != nil {
			return &ValidationError{
				Field:   "policy",
				Message: fmt.Sprintf("must be one of %s", strings.Join(normalizer.PresetNames(), ", ")),
			}
		}
	}
	if _, err := storage.ParseCompression(c.Compression); err != nil {
		return &ValidationError{
			Field:   "compression",
			Message: fmt.Sprintf("must be one of %s", strings.Join(storage.CompressionNames(), ", ")),
		}
	}
	if c.PasswordLength != 0 &&
		(c.PasswordLength < normalizer.MinPasswordLength || c.PasswordLength > normalizer.MaxPasswordLength) {
		return &ValidationError{
			Field:   "passwordLength",
			Message: fmt.Sprintf("must be between %d and %d", normalizer.MinPasswordLength, normalizer.MaxPasswordLength),
		}
	}
	if c.ListenAddr != "" {
		if _, port, err := net.SplitHostPort(c.ListenAddr); err != nil || port == "" {
			return &ValidationError{Field: "listenAddr", Message: "must be host:port"}
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info":
	default:
		return &ValidationError{Field: "logLevel", Message: "must be debug or info"}
	}
	return nil
}

// GetLogger returns the configured logger, or a discarding one
func (c *Config) GetLogger() logr.Logger {
	if c == nil || c.Logger.GetSink() == nil {
		return logr.Discard()
	}
	return c.Logger
}

// Clone returns a copy of the config
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cpy := *c
	if c.PolicySpec != nil {
		spec := *c.PolicySpec
		cpy.PolicySpec = &spec
	}
	return &cpy
}

// ConfigBuilder provides a fluent interface for building Config objects.
// Example usage:
//
//	cfg, err := NewConfigBuilder().
//	    WithProject("acme-prod").
//	    WithPolicy("secure").
//	    WithStorage("gs://acme-plans/sql", "gzip").
//	    Build()
type ConfigBuilder struct {
	config *Config
}

// NewConfigBuilder creates a new ConfigBuilder with default values.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: &Config{
			Policy:      normalizer.PresetDefault,
			Compression: string(storage.CompressionNone),
			ListenAddr:  DefaultListenAddr,
		},
	}
}

func (b *ConfigBuilder) WithProject(project string) *ConfigBuilder {
	b.config.Project = project
	return b
}

func (b *ConfigBuilder) WithRegion(region string) *ConfigBuilder {
	b.config.Region = region
	return b
}

// WithPolicy selects the preset and an optional PlanPolicy file
func (b *ConfigBuilder) WithPolicy(preset string, file ...string) *ConfigBuilder {
	b.config.Policy = preset
	if len(file) > 0 {
		b.config.PolicyFile = file[0]
	}
	return b
}

func (b *ConfigBuilder) WithStrict(strict bool) *ConfigBuilder {
	b.config.Strict = strict
	return b
}

func (b *ConfigBuilder) WithPasswordLength(n int32) *ConfigBuilder {
	b.config.PasswordLength = n
	return b
}

// WithStorage sets the publish target and compression
func (b *ConfigBuilder) WithStorage(url, compression string) *ConfigBuilder {
	b.config.StorageURL = url
	b.config.Compression = compression
	return b
}

func (b *ConfigBuilder) WithListenAddr(addr string) *ConfigBuilder {
	b.config.ListenAddr = addr
	return b
}

func (b *ConfigBuilder) WithLogger(log logr.Logger) *ConfigBuilder {
	b.config.Logger = log
	return b
}

// Build validates and returns the Config.
func (b *ConfigBuilder) Build() (*Config, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return b.config, nil
}

// MustBuild validates and returns the Config, panicking if validation fails.
func (b *ConfigBuilder) MustBuild() *Config {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}
