package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppHost string        `mapstructure:"host"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	DB      DBConfig      `mapstructure:"db"`
	Badger  BadgerConfig  `mapstructure:"badger"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Storage StorageConfig `mapstructure:"storage"`
	Uploads UploadsConfig `mapstructure:"uploads"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Log     LogConfig     `mapstructure:"log"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// DBConfig selects the node repository. "postgres" also enables login, sessions and the event journal.
type DBConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres badger"`
	Source string `mapstructure:"source"`
}

type BadgerConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret" validate:"required,min=16"`
	AccessTTL  time.Duration `mapstructure:"access_ttl" validate:"gt=0"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl" validate:"gt=0"`
}

type StorageConfig struct {
	Driver    string        `mapstructure:"driver" validate:"oneof=local s3 minio"`
	Namespace string        `mapstructure:"namespace" validate:"required,excludesall=/\\"`
	Path      string        `mapstructure:"path"`
	PublicURL string        `mapstructure:"public_url"`
	URLExpiry time.Duration `mapstructure:"url_expiry" validate:"gt=0"`
	S3        S3Config      `mapstructure:"s3"`
	Minio     MinioConfig   `mapstructure:"minio"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PathStyle bool   `mapstructure:"path_style"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type UploadsConfig struct {
	MaxFileBytes    int64 `mapstructure:"max_file_bytes" validate:"gt=0"`
	MaxRequestBytes int64 `mapstructure:"max_request_bytes" validate:"gtefield=MaxFileBytes"`
}

// BatchConfig caps the number of concurrently running items of one bulk request. Zero means no cap.
type BatchConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "localhost")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.source", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_ttl", time.Hour)
	v.SetDefault("jwt.refresh_ttl", 24*time.Hour)
	v.SetDefault("badger.in_memory", false)
	v.SetDefault("badger.path", "./data/nodes")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.namespace", "droply")
	v.SetDefault("storage.path", "./data/objects")
	v.SetDefault("storage.url_expiry", 15*time.Minute)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.path_style", false)
	v.SetDefault("storage.minio.use_ssl", false)

	// Registered so AutomaticEnv can override them without a config file.
	for _, key := range []string{
		"storage.public_url", "storage.s3.bucket", "storage.s3.endpoint", "storage.s3.access_key", "storage.s3.secret_key",
		"storage.minio.endpoint", "storage.minio.bucket", "storage.minio.access_key", "storage.minio.secret_key",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("uploads.max_file_bytes", 5<<20)
	v.SetDefault("uploads.max_request_bytes", 50<<20)
	v.SetDefault("batch.max_concurrency", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath("./configs")
	v.AddConfigPath("/configs")
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
