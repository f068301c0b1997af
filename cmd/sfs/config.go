package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/weberc2/sfs/pkg/imagestore"
	"github.com/weberc2/sfs/pkg/log"
	"github.com/weberc2/sfs/pkg/objectstore"
	. "github.com/weberc2/sfs/pkg/types"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "SFS"
	appName      = "sfs"

	BackendFile     = "file"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

type Config struct {
	Backend   string `envconfig:"BACKEND"    yaml:"backend"`
	ImagePath string `envconfig:"IMAGE_PATH" yaml:"imagePath"`
	Bucket    string `envconfig:"BUCKET"     yaml:"bucket"`
	Volume    string `envconfig:"VOLUME"     yaml:"volume"`
	Gzip      bool   `envconfig:"GZIP"       yaml:"gzip"`
	Checksum  bool   `envconfig:"CHECKSUM"   yaml:"checksum"`

	PGHost     string `envconfig:"PG_HOST"     yaml:"pgHost"`
	PGPort     string `envconfig:"PG_PORT"     yaml:"pgPort"`
	PGUser     string `envconfig:"PG_USER"     yaml:"pgUser"`
	PGPassword string `envconfig:"PG_PASS"     yaml:"pgPassword"`
	PGDBName   string `envconfig:"PG_DB_NAME"  yaml:"pgDBName"`
	PGSSLMode  string `envconfig:"PG_SSL_MODE" yaml:"pgSSLMode"`

	Addr        string `envconfig:"ADDR"         yaml:"addr"`
	TokenSecret string `envconfig:"TOKEN_SECRET" yaml:"tokenSecret"`

	LogFormat string `envconfig:"LOG_FORMAT" yaml:"logFormat"`
	LogLevel  string `envconfig:"LOG_LEVEL"  yaml:"logLevel"`

	BlockSize      Byte   `envconfig:"BLOCK_SIZE"      yaml:"blockSize"`
	BlockCount     Block  `envconfig:"BLOCK_COUNT"     yaml:"blockCount"`
	InodeCount     Ino    `envconfig:"INODE_COUNT"     yaml:"inodeCount"`
	DirectPointers uint32 `envconfig:"DIRECT_POINTERS" yaml:"directPointers"`
	NameSize       Byte   `envconfig:"NAME_SIZE"       yaml:"nameSize"`
}

// DefaultConfig is the starting point the config file and the environment
// are layered over. Setting defaults here instead of in `default` tags keeps
// envconfig from clobbering values that came from the file.
func DefaultConfig() Config {
	g := DefaultGeometry()
	return Config{
		Backend:        BackendFile,
		ImagePath:      imagestore.DefaultImagePath,
		Volume:         "default",
		PGHost:         "localhost",
		PGPort:         "5432",
		PGUser:         "postgres",
		PGDBName:       "postgres",
		PGSSLMode:      "disable",
		Addr:           "127.0.0.1:8080",
		LogFormat:      "text",
		LogLevel:       "info",
		BlockSize:      g.BlockSize,
		BlockCount:     g.BlockCount,
		InodeCount:     g.InodeCount,
		DirectPointers: g.DirectPointers,
		NameSize:       g.NameSize,
	}
}

// LoadConfig layers the YAML file named by `SFS_CONFIG_FILE` (if any) and
// then `SFS_*` environment variables over `DefaultConfig()`.
func LoadConfig() (*Config, error) {
	c := DefaultConfig()
	if configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE"); configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		switch c.Backend {
		case BackendFile:
			if c.ImagePath == "" {
				return "imagePath", "IMAGE_PATH"
			}
		case BackendS3:
			if c.Bucket == "" {
				return "bucket", "BUCKET"
			}
			if c.Volume == "" {
				return "volume", "VOLUME"
			}
		case BackendPostgres:
			if c.Volume == "" {
				return "volume", "VOLUME"
			}
			if c.PGHost == "" {
				return "pgHost", "PG_HOST"
			}
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf(
			"missing required configuration: %s / %s_%s",
			y,
			envVarPrefix,
			e,
		)
	}

	switch c.Backend {
	case BackendFile, BackendS3, BackendPostgres:
	default:
		return fmt.Errorf(
			"unsupported backend `%s` (%s_BACKEND); wanted one of `%s`, "+
				"`%s` or `%s`",
			c.Backend,
			envVarPrefix,
			BackendFile,
			BackendS3,
			BackendPostgres,
		)
	}

	g := c.Geometry()
	return g.Validate()
}

func (c *Config) Geometry() Geometry {
	return Geometry{
		BlockSize:      c.BlockSize,
		BlockCount:     c.BlockCount,
		InodeCount:     c.InodeCount,
		DirectPointers: c.DirectPointers,
		NameSize:       c.NameSize,
	}
}

func (c *Config) Logger() (*slog.Logger, error) {
	return log.New(os.Stderr, c.LogFormat, c.LogLevel)
}

func (c *Config) PGParams() imagestore.PGParams {
	return imagestore.PGParams{
		Host:     c.PGHost,
		Port:     c.PGPort,
		User:     c.PGUser,
		Password: c.PGPassword,
		DBName:   c.PGDBName,
		SSLMode:  c.PGSSLMode,
	}
}

func (c *Config) ObjectImageStore() (*imagestore.ObjectImageStore, error) {
	if c.Backend != BackendS3 {
		return nil, fmt.Errorf(
			"snapshots require the `%s` backend; found `%s`",
			BackendS3,
			c.Backend,
		)
	}
	s3, err := objectstore.NewS3ObjectStore()
	if err != nil {
		return nil, err
	}
	var objects objectstore.ObjectStore = s3
	if c.Gzip {
		objects = &objectstore.GzipObjectStore{ObjectStore: s3}
	}
	return imagestore.NewObjectImageStore(objects, c.Bucket, c.Volume), nil
}

func (c *Config) PGImageStore() (*imagestore.PGImageStore, error) {
	params := c.PGParams()
	return imagestore.OpenPG(&params, c.Volume)
}

// ImageStore builds the configured backend, wrapped in a checksum layer when
// enabled.
func (c *Config) ImageStore() (imagestore.ImageStore, error) {
	var store imagestore.ImageStore
	switch c.Backend {
	case BackendFile:
		store = &imagestore.FileImageStore{Path: c.ImagePath}
	case BackendS3:
		s, err := c.ObjectImageStore()
		if err != nil {
			return nil, fmt.Errorf("building image store: %w", err)
		}
		store = s
	case BackendPostgres:
		s, err := c.PGImageStore()
		if err != nil {
			return nil, fmt.Errorf("building image store: %w", err)
		}
		if err := s.EnsureTable(); err != nil {
			return nil, fmt.Errorf("building image store: %w", err)
		}
		store = s
	default:
		return nil, fmt.Errorf("unsupported backend `%s`", c.Backend)
	}

	if c.Checksum {
		store = &imagestore.ChecksumImageStore{ImageStore: store}
	}
	return store, nil
}
