package config

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	apiPrefixVar          = "API_PREFIX"
	defaultAPIPrefix      = "api"
	defaultForwardTimeout = 30 * time.Second
)

// defaultTenants is the built-in tenant table. A CONFIG_FILE can extend or
// override it.
var defaultTenants = map[string]string{
	"HOMINUM": "http://hominum.hr-backend.internal:3001",
}

type Forward struct {
	APIPrefix      string
	DefaultTimeout time.Duration
	Timeouts       map[string]time.Duration
	Tenants        map[string]string
}

var _ ForwardConfig = Forward{}

func DefaultForward() Forward {
	return Forward{
		APIPrefix:      strings.Trim(GetEnv(apiPrefixVar, defaultAPIPrefix), "/"),
		DefaultTimeout: defaultForwardTimeout,
		Timeouts:       map[string]time.Duration{},
		Tenants:        maps.Clone(defaultTenants),
	}
}

func (f Forward) GetAPIPrefix() string {
	return f.APIPrefix
}

func (f Forward) GetDefaultTimeout() time.Duration {
	if f.DefaultTimeout <= 0 {
		return defaultForwardTimeout
	}
	return f.DefaultTimeout
}

// GetOperationTimeout returns a configured override for the named operation.
func (f Forward) GetOperationTimeout(operation string) (time.Duration, bool) {
	d, ok := f.Timeouts[operation]
	return d, ok
}

// GetTenants returns a copy of the tenant name to base URL table.
func (f Forward) GetTenants() map[string]string {
	return maps.Clone(f.Tenants)
}

// File is the optional YAML configuration file.
//
//	tenants:
//	  HOMINUM: http://10.0.0.12:3001
//	timeouts:
//	  default: 30s
//	  finance-vouchers: 100s
type File struct {
	Tenants  map[string]string `yaml:"tenants"`
	Timeouts map[string]string `yaml:"timeouts"`
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &f, nil
}

// Merge returns a copy of f with the file's tenants and timeouts applied.
func (f Forward) Merge(file *File) (Forward, error) {
	merged := Forward{
		APIPrefix:      f.APIPrefix,
		DefaultTimeout: f.DefaultTimeout,
		Timeouts:       maps.Clone(f.Timeouts),
		Tenants:        maps.Clone(f.Tenants),
	}
	if merged.Timeouts == nil {
		merged.Timeouts = map[string]time.Duration{}
	}
	if merged.Tenants == nil {
		merged.Tenants = map[string]string{}
	}
	if file == nil {
		return merged, nil
	}
	for name, url := range file.Tenants {
		merged.Tenants[strings.ToUpper(strings.TrimSpace(name))] = strings.TrimRight(url, "/")
	}
	for name, raw := range file.Timeouts {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Forward{}, fmt.Errorf("timeout %q: %w", name, err)
		}
		if d <= 0 {
			return Forward{}, fmt.Errorf("timeout %q must be positive", name)
		}
		if name == "default" {
			merged.DefaultTimeout = d
			continue
		}
		merged.Timeouts[name] = d
	}
	return merged, nil
}
