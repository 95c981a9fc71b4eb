package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// JWT
	JWTSecret string

	// Avatar storage. "template" builds authenticated object URLs from
	// STORAGE_URL/STORAGE_KEY, "s3" presigns against S3_BUCKET_NAME.
	AvatarBackend string
	StorageURL    string
	StorageKey    string
	StorageBucket string

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3BucketName       string

	// Photo resolution
	PhotoProxyHosts string
	PhotoCache      string
	PhotoCacheTTL   time.Duration

	// Import
	ImportConcurrency int

	// Server
	Port   string
	AppEnv string

	// File Upload
	MaxFileSize int64

	// Logging
	LogLevel string
	LogFile  string

	// Feature Toggles
	SkipMigrate bool
	Seed        bool
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

var AppConfig *Config

func LoadConfig() {
	useSSM := getEnv("USE_SSM", "false") == "true"

	var paramMap map[string]string

	basePath := strings.TrimRight(getEnv("SSM_BASE_PATH", "/classdesk"), "/")
	stage := getEnv("STAGE", getEnv("APP_ENV", "production"))
	prefix := basePath + "/" + stage

	if useSSM {
		sess, err := session.NewSession(&aws.Config{Region: aws.String(getEnv("AWS_REGION", "ap-south-1"))})
		if err != nil {
			log.Fatal("Failed to create AWS session:", err)
		}
		log.Printf("Using AWS SSM Parameter Store (prefix=%s)", prefix)
		paramMap = fetchSSMParameters(ssm.New(sess), prefix)
	} else {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using environment variables")
		}
	}

	getVal := func(key, def string) string {
		if useSSM {
			if v, ok := paramMap[strings.ToUpper(key)]; ok && v != "" {
				return v
			}
		}
		return getEnv(strings.ToUpper(key), def)
	}

	cfg, err := build(getVal)
	if err != nil {
		log.Fatal(err)
	}
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("%v (SSM=%v)", err, useSSM)
	}
	AppConfig = cfg
}

// build assembles a Config from a key lookup. It is separate from LoadConfig
// so tests can feed it a map.
func build(getVal func(key, def string) string) (*Config, error) {
	maxFileSize, err := strconv.ParseInt(getVal("MAX_FILE_SIZE", "10485760"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_FILE_SIZE: %w", err)
	}
	concurrency, err := strconv.Atoi(getVal("IMPORT_CONCURRENCY", "4"))
	if err != nil || concurrency < 1 {
		return nil, fmt.Errorf("invalid IMPORT_CONCURRENCY %q", getVal("IMPORT_CONCURRENCY", "4"))
	}
	cacheTTL, err := time.ParseDuration(getVal("PHOTO_CACHE_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid PHOTO_CACHE_TTL: %w", err)
	}

	return &Config{
		DBHost:     getVal("DB_HOST", "localhost"),
		DBPort:     getVal("DB_PORT", "5432"),
		DBUser:     getVal("DB_USER", "postgres"),
		DBPassword: getVal("DB_PASSWORD", ""),
		DBName:     getVal("DB_NAME", "classdesk"),
		DBSSLMode:  getVal("DB_SSLMODE", "disable"),

		RedisHost:     getVal("REDIS_HOST", "localhost"),
		RedisPort:     getVal("REDIS_PORT", "6379"),
		RedisPassword: getVal("REDIS_PASSWORD", ""),

		JWTSecret: getVal("JWT_SECRET", "your_super_secret_jwt_key"),

		AvatarBackend: strings.ToLower(getVal("AVATAR_BACKEND", "template")),
		StorageURL:    strings.TrimRight(getVal("STORAGE_URL", ""), "/"),
		StorageKey:    getVal("STORAGE_KEY", ""),
		StorageBucket: getVal("STORAGE_BUCKET", "avatars"),

		AWSRegion:          getVal("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:     getVal("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getVal("AWS_SECRET_ACCESS_KEY", ""),
		S3BucketName:       getVal("S3_BUCKET_NAME", "classdesk-storage"),

		PhotoProxyHosts: getVal("PHOTO_PROXY_HOSTS", "lh3.googleusercontent.com,graph.facebook.com,platform-lookaside.fbsbx.com"),
		PhotoCache:      strings.ToLower(getVal("PHOTO_CACHE", "memory")),
		PhotoCacheTTL:   cacheTTL,

		ImportConcurrency: concurrency,

		Port:   getVal("PORT", "3000"),
		AppEnv: getVal("APP_ENV", "development"),

		MaxFileSize: maxFileSize,

		LogLevel: getVal("LOG_LEVEL", "info"),
		LogFile:  getVal("LOG_FILE", "logs/app.log"),

		SkipMigrate: strings.ToLower(getVal("SKIP_MIGRATE", "false")) == "true",
		Seed:        strings.ToLower(getVal("SEED", "false")) == "true",
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// fetchSSMParameters reads all parameters under prefix and returns map with UPPERCASE keys.
func fetchSSMParameters(client *ssm.SSM, prefix string) map[string]string {
	out := make(map[string]string)
	next := aws.String("")
	for {
		in := &ssm.GetParametersByPathInput{
			Path:           aws.String(prefix),
			WithDecryption: aws.Bool(true),
			Recursive:      aws.Bool(true),
		}
		if *next != "" {
			in.NextToken = next
		}
		resp, err := client.GetParametersByPath(in)
		if err != nil {
			log.Printf("Warning: unable to fetch SSM parameters for prefix %s: %v", prefix, err)
			break
		}
		for _, p := range resp.Parameters {
			if p.Name == nil || p.Value == nil {
				continue
			}
			name := *p.Name
			key := name[strings.LastIndex(name, "/")+1:]
			if key == "" {
				continue
			}
			out[strings.ToUpper(key)] = *p.Value
		}
		if resp.NextToken == nil || *resp.NextToken == "" {
			break
		}
		next = resp.NextToken
	}
	return out
}

func validateConfig(c *Config) error {
	switch c.AvatarBackend {
	case "template", "s3":
	default:
		return fmt.Errorf("AVATAR_BACKEND must be template or s3, got %q", c.AvatarBackend)
	}
	switch c.PhotoCache {
	case "memory", "redis", "off":
	default:
		return fmt.Errorf("PHOTO_CACHE must be memory, redis or off, got %q", c.PhotoCache)
	}

	// Only enforce stricter rules in production
	if !c.IsProduction() {
		return nil
	}
	for _, k := range []string{"DB_PASSWORD", "JWT_SECRET"} {
		v := c.DBPassword
		if k == "JWT_SECRET" {
			v = c.JWTSecret
		}
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("missing required secret %s in production", k)
		}
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET too short (min 16 chars)")
	}
	return nil
}
