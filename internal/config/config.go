// Package config resolves the settings of a single invocation from file, environment and flags.
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultBranch   = "main"
	defaultAPIURL   = "https://api.github.com"
	defaultRawURL   = "https://raw.githubusercontent.com"
	defaultDIDURL   = "https://api.d-id.com"
	defaultLogPath  = "quiz_log.txt"
	defaultTimeout  = 5 * time.Second
	defaultAttempts = 3
)

// keys lists every setting read from the environment
var keys = map[string]bool{
	"github_token":    true,
	"github_username": true,
	"repo_name":       true,
	"github_branch":   true,
	"github_api_url":  true,
	"github_raw_url":  true,
	"log_path":        true,
	"snapshot_dir":    true,
	"did_api_key":     true,
	"did_api_url":     true,
	"knowledge_id":    true,
	"document_id":     true,
	"queue_url":       true,
	"aws_region":      true,
	"http_timeout":    true,
	"write_attempts":  true,
}

// ConfigError reports missing or invalid configuration
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// Store holds file store settings
type Store struct {
	Token    string `koanf:"github_token" validate:"required"`
	Owner    string `koanf:"github_username" validate:"required"`
	Repo     string `koanf:"repo_name" validate:"required"`
	Branch   string `koanf:"github_branch"`
	APIURL   string `koanf:"github_api_url" validate:"url"`
	RawURL   string `koanf:"github_raw_url" validate:"url"`
	LogPath  string `koanf:"log_path"`
	Snapshot string `koanf:"snapshot_dir"`
	Attempts int    `koanf:"write_attempts" validate:"gte=1"`
}

// Knowledge holds knowledge service settings
type Knowledge struct {
	APIKey       string `koanf:"did_api_key" validate:"required"`
	APIURL       string `koanf:"did_api_url" validate:"url"`
	CollectionID string `koanf:"knowledge_id" validate:"required"`
	// PreviousID is the document registered by an earlier run, if known
	PreviousID string `koanf:"document_id"`
}

// Config is the resolved configuration of one invocation
type Config struct {
	Store   Store
	Timeout time.Duration
	// Knowledge is nil when registration is not configured
	Knowledge *Knowledge
	QueueURL  string
	Region    string
}

// raw mirrors the flat key space before it is split into sections
type raw struct {
	Store       `koanf:",squash"`
	DIDKey      string        `koanf:"did_api_key"`
	DIDURL      string        `koanf:"did_api_url"`
	KnowledgeID string        `koanf:"knowledge_id"`
	DocumentID  string        `koanf:"document_id"`
	QueueURL    string        `koanf:"queue_url"`
	Region      string        `koanf:"aws_region"`
	Timeout     time.Duration `koanf:"http_timeout"`
}

// Loader builds a Config, optionally layering extra sources over the environment
type Loader struct {
	// File is an optional YAML file read before the environment
	File string
	// Overlay is called last and may load further providers, e.g. CLI flags
	Overlay func(k *koanf.Koanf) error
}

// Load reads configuration from the environment only
func Load() (*Config, error) {
	return Loader{}.Load()
}

// Load resolves and validates the configuration
func (l Loader) Load() (*Config, error) {

	k := koanf.New(".")

	if l.File != "" {
		if err := k.Load(file.Provider(l.File), yaml.Parser()); err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("could not read config file %v: %v", l.File, err)}
		}
	}

	err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if !keys[key] {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("could not read environment: %v", err)}
	}

	if l.Overlay != nil {
		if err := l.Overlay(k); err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("could not apply overrides: %v", err)}
		}
	}

	var r raw
	if err := k.Unmarshal("", &r); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("could not decode configuration: %v", err)}
	}

	return build(r)
}

func build(r raw) (*Config, error) {

	s := r.Store
	if s.Branch == "" {
		s.Branch = defaultBranch
	}
	if s.APIURL == "" {
		s.APIURL = defaultAPIURL
	}
	if s.RawURL == "" {
		s.RawURL = defaultRawURL
	}
	if s.LogPath == "" {
		s.LogPath = defaultLogPath
	}
	if s.Attempts == 0 {
		s.Attempts = defaultAttempts
	}
	s.Snapshot = strings.Trim(s.Snapshot, "/")

	c := &Config{
		Store:    s,
		Timeout:  r.Timeout,
		QueueURL: r.QueueURL,
		Region:   r.Region,
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	if err := validate.Struct(c.Store); err != nil {
		return nil, &ConfigError{Msg: describe("store", err)}
	}

	// registration only runs with both a credential and a collection
	if r.DIDKey != "" && r.KnowledgeID != "" {
		kn := &Knowledge{
			APIKey:       r.DIDKey,
			APIURL:       r.DIDURL,
			CollectionID: r.KnowledgeID,
			PreviousID:   r.DocumentID,
		}
		if kn.APIURL == "" {
			kn.APIURL = defaultDIDURL
		}
		if err := validate.Struct(kn); err != nil {
			return nil, &ConfigError{Msg: describe("knowledge", err)}
		}
		c.Knowledge = kn
	}

	return c, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("koanf")
		if name == "" {
			return f.Name
		}
		return strings.ToUpper(name)
	})
	return v
}

// describe turns validator output into a single readable line
func describe(section string, err error) string {

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Sprintf("invalid %v configuration: %v", section, err)
	}

	var missing, invalid []string
	for _, fe := range ve {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fe.Field())
	}

	switch {
	case len(missing) > 0:
		return fmt.Sprintf("missing environment variable: %v", strings.Join(missing, ", "))
	default:
		return fmt.Sprintf("invalid %v configuration: %v", section, strings.Join(invalid, ", "))
	}
}
