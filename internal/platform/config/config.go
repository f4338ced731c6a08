package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server is the process configuration. It is built once in main and passed by
// value into constructors; nothing reads the environment after startup.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
	Database        DatabaseConfig
	Redis           RedisConfig
	Kafka           KafkaConfig
	Account         AccountConfig
	Certificate     CertificateConfig
	PII             PIIConfig
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers         string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
	EnsureTopics    bool
}

// PageLimits mirrors search.Limits without importing it.
type PageLimits struct {
	DefaultOffset int
	DefaultLimit  int
	MaxLimit      int
}

type AccountConfig struct {
	Search      PageLimits
	CreateTopic string
	UpdateTopic string
	References  ReferenceConfig
}

// ReferenceConfig locates the registries that own account reference ids. An
// empty host disables lookups for that registry.
type ReferenceConfig struct {
	IndividualHost       string
	IndividualSearchPath string
	OrganisationHost     string
	OrgSearchPath        string
	Timeout              time.Duration
}

// Enabled reports whether any registry is configured.
func (r ReferenceConfig) Enabled() bool {
	return r.IndividualHost != "" || r.OrganisationHost != ""
}

// IndividualURL returns the individual search URL, or "" when unset.
func (r ReferenceConfig) IndividualURL() string {
	return joinURL(r.IndividualHost, r.IndividualSearchPath)
}

// OrganisationURL returns the organisation search URL, or "" when unset.
func (r ReferenceConfig) OrganisationURL() string {
	return joinURL(r.OrganisationHost, r.OrgSearchPath)
}

func joinURL(host, path string) string {
	if host == "" {
		return ""
	}
	return strings.TrimRight(host, "/") + "/" + strings.TrimLeft(path, "/")
}

type CertificateConfig struct {
	Search          PageLimits
	MaxPerRequest   int
	DefaultContext  string
	ProofType       string
	ProofPurpose    string
	VerificationKey string
	TrustedPrefixes []string
	TrustCacheTTL   time.Duration
	CreateTopic     string
	UpdateTopic     string
	RevokeTopic     string
}

type PIIConfig struct {
	// Key is a base64 encoded secret. Empty selects the passthrough codec.
	Key string
}

// Topics lists every topic the service produces to.
func (s Server) Topics() []string {
	return []string{
		s.Account.CreateTopic,
		s.Account.UpdateTopic,
		s.Certificate.CreateTopic,
		s.Certificate.UpdateTopic,
		s.Certificate.RevokeTopic,
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:            envString("RECORDHUB_ADDR", ":8080"),
		LogLevel:        envString("LOG_LEVEL", "info"),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			RunMigrations:   envBool("DATABASE_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			Acks:            envString("KAFKA_ACKS", "all"),
			Retries:         envInt("KAFKA_RETRIES", 3),
			DeliveryTimeout: envDuration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
			EnsureTopics:    envBool("KAFKA_ENSURE_TOPICS", false),
		},
		Account: AccountConfig{
			Search: PageLimits{
				DefaultOffset: envInt("ACCOUNT_SEARCH_DEFAULT_OFFSET", 0),
				DefaultLimit:  envInt("ACCOUNT_SEARCH_DEFAULT_LIMIT", 10),
				MaxLimit:      envInt("ACCOUNT_SEARCH_MAX_LIMIT", 100),
			},
			CreateTopic: envString("ACCOUNT_CREATE_TOPIC", "save-bank-account"),
			UpdateTopic: envString("ACCOUNT_UPDATE_TOPIC", "update-bank-account"),
			References: ReferenceConfig{
				IndividualHost:       os.Getenv("INDIVIDUAL_HOST"),
				IndividualSearchPath: envString("INDIVIDUAL_SEARCH_PATH", "/individual/v1/_search"),
				OrganisationHost:     os.Getenv("ORGANISATION_HOST"),
				OrgSearchPath:        envString("ORGANISATION_SEARCH_PATH", "/org-services/organisation/v1/_search"),
				Timeout:              envDuration("REFERENCE_LOOKUP_TIMEOUT", 10*time.Second),
			},
		},
		Certificate: CertificateConfig{
			Search: PageLimits{
				DefaultOffset: envInt("CERTIFICATE_SEARCH_DEFAULT_OFFSET", 0),
				DefaultLimit:  envInt("CERTIFICATE_SEARCH_DEFAULT_LIMIT", 100),
				MaxLimit:      envInt("CERTIFICATE_SEARCH_MAX_LIMIT", 200),
			},
			MaxPerRequest:   envInt("CERTIFICATE_MAX_PER_REQUEST", 100),
			DefaultContext:  envString("CERTIFICATE_DEFAULT_CONTEXT", "https://www.w3.org/2018/credentials/v1"),
			ProofType:       envString("CERTIFICATE_PROOF_TYPE", "Ed25519Signature2020"),
			ProofPurpose:    envString("CERTIFICATE_PROOF_PURPOSE", "assertionMethod"),
			VerificationKey: envString("CERTIFICATE_VERIFICATION_KEY", "key-1"),
			TrustedPrefixes: envList("CERTIFICATE_TRUSTED_ISSUER_PREFIXES", []string{"did:gov:", "did:dept:"}),
			TrustCacheTTL:   envDuration("CERTIFICATE_TRUST_CACHE_TTL", 5*time.Minute),
			CreateTopic:     envString("CERTIFICATE_CREATE_TOPIC", "save-certificate"),
			UpdateTopic:     envString("CERTIFICATE_UPDATE_TOPIC", "update-certificate"),
			RevokeTopic:     envString("CERTIFICATE_REVOKE_TOPIC", "revoke-certificate"),
		},
		PII: PIIConfig{
			Key: os.Getenv("PII_ENCRYPTION_KEY"),
		},
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func envList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
