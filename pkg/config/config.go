package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	GCP       GCPConfig
	BigQuery  BigQueryConfig
	Firestore FirestoreConfig
	PubSub    PubSubConfig
	Writer    WriterConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOOKINGS_APP_ENV" required:"true"`
	Port         string `envconfig:"BOOKINGS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOOKINGS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOOKINGS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BOOKINGS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BOOKINGS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BOOKINGS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset        string `envconfig:"BOOKINGS_BIGQUERY_DATASET" default:"the_escape_bookings"`
	Location       string `envconfig:"BOOKINGS_BIGQUERY_LOCATION" default:"europe-west6"`
	OrdersTable    string `envconfig:"BOOKINGS_BIGQUERY_ORDERS_TABLE" default:"orders"`
	ItemsTable     string `envconfig:"BOOKINGS_BIGQUERY_ITEMS_TABLE" default:"order_items"`
	CustomersTable string `envconfig:"BOOKINGS_BIGQUERY_CUSTOMERS_TABLE" default:"customers"`
	OrderUserTable string `envconfig:"BOOKINGS_BIGQUERY_ORDER_USER_TABLE" default:"order_user"`
}

// Tables returns every configured destination table name, empty entries dropped.
func (b BigQueryConfig) Tables() []string {
	tables := []string{}
	for _, name := range []string{b.OrdersTable, b.ItemsTable, b.CustomersTable, b.OrderUserTable} {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			tables = append(tables, trimmed)
		}
	}
	return tables
}

type FirestoreConfig struct {
	DatabaseID       string `envconfig:"BOOKINGS_FIRESTORE_DATABASE" default:"(default)"`
	OrdersCollection string `envconfig:"BOOKINGS_FIRESTORE_ORDERS_COLLECTION" default:"orders"`
	ItemsCollection  string `envconfig:"BOOKINGS_FIRESTORE_ITEMS_COLLECTION" default:"order_items"`
	MirrorEnabled    bool   `envconfig:"BOOKINGS_FIRESTORE_MIRROR_ENABLED" default:"true"`
}

type PubSubConfig struct {
	BookingsSubscription string `envconfig:"BOOKINGS_PUBSUB_BOOKINGS_SUBSCRIPTION"`
}

type WriterConfig struct {
	MaxAttempts    int           `envconfig:"BOOKINGS_WRITER_MAX_ATTEMPTS" default:"3"`
	InitialBackoff time.Duration `envconfig:"BOOKINGS_WRITER_INITIAL_BACKOFF" default:"250ms"`
	MaximumBackoff time.Duration `envconfig:"BOOKINGS_WRITER_MAXIMUM_BACKOFF" default:"2s"`
}
