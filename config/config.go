package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "CATALOG"
	configFileEnvName = envPrefix + "_CONFIG_FILE"
	defaultConfigFile = "/config.yaml"
)

const (
	DriverMongoDB    = "mongodb"
	DriverPostgreSQL = "postgresql"
)

type httpConfig struct {
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	FailureStatus  int           `mapstructure:"failure_status"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

type mongoDB struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type postgreSQL struct {
	DSN string `mapstructure:"dsn"`
}

type storage struct {
	Driver     string     `mapstructure:"driver"`
	MongoDB    mongoDB    `mapstructure:"mongodb"`
	PostgreSQL postgreSQL `mapstructure:"postgresql"`
}

type cache struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	Key       string        `mapstructure:"key"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type consumers struct {
	HomeInvalidatorGroup string `mapstructure:"home_invalidator_group"`
}

type topics struct {
	ProductChanges string `mapstructure:"product_changes"`
}

type tls struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	TLS                tls       `mapstructure:"tls"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	MetricsAddr    string     `mapstructure:"metrics_addr"`
	HTTP           httpConfig `mapstructure:"http"`
	Storage        storage    `mapstructure:"storage"`
	Cache          cache      `mapstructure:"cache"`
	Broker         broker     `mapstructure:"broker"`
}

func (c Config) CacheEnabled() bool {
	return c.Cache.RedisAddr != ""
}

// ConsumerEnabled reports whether cache invalidation events are read.
func (c Config) ConsumerEnabled() bool {
	return c.CacheEnabled() && len(c.Broker.SeedBrokers) != 0
}

func (c Config) TLSEnabled() bool {
	return c.Broker.TLS.CA != ""
}

func (c Config) Validate() error {
	var errs []error

	if c.HTTPServerAddr == "" {
		errs = append(errs, errors.New("http_server_addr is required"))
	}
	if s := c.HTTP.FailureStatus; s < 100 || s > 599 {
		errs = append(errs, fmt.Errorf("http.failure_status %d is not a HTTP status", s))
	}
	if c.HTTP.HandlerTimeout < 0 {
		errs = append(errs, errors.New("http.handler_timeout must not be negative"))
	}

	switch c.Storage.Driver {
	case DriverMongoDB:
		m := c.Storage.MongoDB
		if m.URI == "" || m.Database == "" || m.Collection == "" {
			errs = append(errs, errors.New(
				"storage.mongodb uri, database and collection are required",
			))
		}
	case DriverPostgreSQL:
		if c.Storage.PostgreSQL.DSN == "" {
			errs = append(errs, errors.New("storage.postgresql.dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"storage.driver %q is unknown, want %q or %q",
			c.Storage.Driver, DriverMongoDB, DriverPostgreSQL,
		))
	}

	if c.CacheEnabled() && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}

	if c.ConsumerEnabled() {
		b := c.Broker
		if len(b.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls is required"))
		}
		if b.Topics.ProductChanges == "" {
			errs = append(errs, errors.New("broker.topics.product_changes is required"))
		}
		if b.Consumers.HomeInvalidatorGroup == "" {
			errs = append(errs, errors.New(
				"broker.consumers.home_invalidator_group is required",
			))
		}
		if c.TLSEnabled() && (b.TLS.Cert == "") != (b.TLS.Key == "") {
			errs = append(errs, errors.New("broker.tls cert and key go together"))
		}
	}

	return errors.Join(errs...)
}

// Load reads the config or terminates the process.
func Load() Config {
	_ = godotenv.Load()

	path, explicit := getConfigFilepath()
	cfg, err := LoadFile(path, !explicit)
	if err != nil {
		die(err)
	}
	if err := cfg.Validate(); err != nil {
		die(err)
	}
	return cfg
}

// LoadFile merges defaults, the YAML file at path and CATALOG_*
// environment variables. A missing file is an error unless optional.
func LoadFile(path string, optional bool) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("metrics_addr", "")

	v.SetDefault("http.allowed_origins", []string{
		"http://localhost:3000", "https://zenn.vercel.app",
	})
	v.SetDefault("http.failure_status", 200)
	v.SetDefault("http.handler_timeout", "0s")

	v.SetDefault("storage.driver", DriverMongoDB)
	v.SetDefault("storage.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.mongodb.database", "zenn_electronica")
	v.SetDefault("storage.mongodb.collection", "products")
	v.SetDefault("storage.postgresql.dsn", "")

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.key", "catalog:home")
	v.SetDefault("cache.ttl", "60s")

	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.topics.product_changes", "product_changes")
	v.SetDefault("broker.consumers.home_invalidator_group", "home-invalidator")
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
}

func getConfigFilepath() (path string, explicit bool) {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", defaultConfigFile, "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env, true
	}
	return *arg, cmdLine.Changed("config")
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	MetricsAddr=%q

	HTTP:
	AllowedOrigins=%q
	FailureStatus=%d
	HandlerTimeout=%s

	Storage:
	Driver=%q
	MongoDB: Database=%q Collection=%q
	PostgreSQL: DSN set=%t

	Cache:
	RedisAddr=%q
	DB=%d
	Key=%q
	TTL=%s

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	Topics:
		ProductChanges=%q
	Consumers:
		HomeInvalidatorGroup=%q
	TLS=%t

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.MetricsAddr,
		c.HTTP.AllowedOrigins,
		c.HTTP.FailureStatus,
		c.HTTP.HandlerTimeout,
		c.Storage.Driver,
		c.Storage.MongoDB.Database,
		c.Storage.MongoDB.Collection,
		c.Storage.PostgreSQL.DSN != "",
		c.Cache.RedisAddr,
		c.Cache.DB,
		c.Cache.Key,
		c.Cache.TTL,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.Topics.ProductChanges,
		c.Broker.Consumers.HomeInvalidatorGroup,
		c.TLSEnabled(),
	)
}
