package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem is the file access LoadConfig needs. Tests swap it out.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFS) LoadEnv(path string) error { return godotenv.Load(path) }

type loader struct {
	fs         FileSystem
	configFile string
	envFile    string
	defaults   map[string]any
	aliases    map[string][]string
}

// LoaderOption customizes LoadConfig.
type LoaderOption func(*loader)

// WithFileSystem replaces the OS file system.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(l *loader) { l.fs = fs }
}

// WithConfigFile skips the search path and reads path.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) { l.configFile = path }
}

// WithEnvFile skips the search path and loads path into the environment.
func WithEnvFile(path string) LoaderOption {
	return func(l *loader) { l.envFile = path }
}

// WithDefault sets the value used when neither file nor environment has key.
func WithDefault(key string, value any) LoaderOption {
	return func(l *loader) { l.defaults[key] = value }
}

// WithEnvAlias lets legacy variables set key. Aliases win over the derived
// name (registry.eureka.url -> REGISTRY_EUREKA_URL).
func WithEnvAlias(key string, envNames ...string) LoaderOption {
	return func(l *loader) { l.aliases[key] = append(l.aliases[key], envNames...) }
}

// LoadConfig fills cfg, a pointer to a struct with mapstructure tags.
// Precedence, lowest first: defaults, config file, .env file, environment.
// Every leaf key of cfg can be set from the environment by its upper-snake
// name.
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	l := &loader{fs: osFS{}, defaults: map[string]any{}, aliases: map[string][]string{}}
	for _, opt := range opts {
		opt(l)
	}
	configFile := l.configFile
	if configFile == "" {
		configFile = firstExisting(l.fs, configCandidates(service))
	}
	envFile := l.envFile
	if envFile == "" {
		envFile = firstExisting(l.fs, envCandidates(service))
	}

	v := viper.New()
	for key, value := range l.defaults {
		v.SetDefault(key, value)
	}
	if configFile != "" && l.fs.Exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}
	if envFile != "" && l.fs.Exists(envFile) {
		if err := l.fs.LoadEnv(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	keys := leafKeys(reflect.TypeOf(cfg), "")
	for key := range l.aliases {
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		names := append(append([]string{}, l.aliases[key]...), envName(key))
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config for %s: %w", service, err)
	}
	return nil
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

func configCandidates(service string) []string {
	return []string{
		"./cmd/" + service + "/config.yml",
		"./config/config.yml",
		"./config.yml",
		"/etc/" + service + "/config.yml",
	}
}

func envCandidates(service string) []string {
	return []string{
		"./cmd/" + service + "/.env",
		"./.env." + service,
		"./.env",
	}
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

var durationType = reflect.TypeOf(time.Duration(0))

// leafKeys lists the dotted mapstructure keys of every non-struct field of t.
// Squashed embeds share their parent's prefix.
func leafKeys(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == durationType {
		if prefix == "" {
			return nil
		}
		return []string{prefix}
	}

	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if strings.Contains(opts, "squash") {
			keys = append(keys, leafKeys(f.Type, prefix)...)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		keys = append(keys, leafKeys(f.Type, name)...)
	}
	return keys
}
