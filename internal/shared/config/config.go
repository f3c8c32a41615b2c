package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	RecordStoreMemory   = "memory"
	RecordStorePostgres = "postgres"
	RecordStoreMongo    = "mongo"

	ObjectStoreLocal  = "local"
	ObjectStoreS3     = "s3"
	ObjectStoreGridFS = "gridfs"

	RetrievalScopeOwn = "own"
	RetrievalScopeAny = "any"
)

// Config holds application configuration.
type Config struct {
	Port             string
	Env              string
	CORSAllowOrigin  []string
	ObjectStoreType  string
	LocalStoreDir    string
	AWSRegion        string
	S3Bucket         string
	S3Prefix         string
	SSEKMSKeyID      string
	RecordStoreType  string
	DatabaseURL      string
	MongoURI         string
	MongoDatabase    string
	RetrievalScope   string
	SeedSampleData   bool
	CleanupQueueURL  string
	UploadsPerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	mongoURI := os.Getenv("MONGO_URI")

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		Env:              env,
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		ObjectStoreType:  normalizeStoreType(getEnv("OBJECT_STORE", ObjectStoreLocal)),
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:        getEnv("AWS_REGION", ""),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Prefix:         getEnv("S3_PREFIX", "certificates/"),
		SSEKMSKeyID:      getEnv("SSE_KMS_KEY_ID", ""),
		RecordStoreType:  normalizeRecordStore(os.Getenv("RECORD_STORE"), dbURL, mongoURI),
		DatabaseURL:      dbURL,
		MongoURI:         mongoURI,
		MongoDatabase:    getEnv("MONGO_DB_NAME", "certify"),
		RetrievalScope:   normalizeScope(getEnv("RETRIEVAL_SCOPE", RetrievalScopeOwn)),
		SeedSampleData:   getBool("SEED_SAMPLE_DATA", false),
		CleanupQueueURL:  getEnv("CLEANUP_SQS_QUEUE_URL", ""),
		UploadsPerMinute: getInt("RATE_LIMIT_UPLOADS_PER_MIN", 30),
	}

	if env == "production" && cfg.RecordStoreType == RecordStoreMemory {
		log.Printf("config: no DATABASE_URL or MONGO_URI in production; records will not persist")
	}
	return cfg
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ObjectStoreS3:
		return ObjectStoreS3
	case ObjectStoreGridFS, "mongo":
		return ObjectStoreGridFS
	default:
		return ObjectStoreLocal
	}
}

// normalizeRecordStore picks the record backend. Without an explicit choice the
// configured connection string decides, Postgres first.
func normalizeRecordStore(raw, dbURL, mongoURI string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case RecordStorePostgres, "pg":
		return RecordStorePostgres
	case RecordStoreMongo, "mongodb":
		return RecordStoreMongo
	case RecordStoreMemory:
		return RecordStoreMemory
	}
	switch {
	case strings.TrimSpace(dbURL) != "":
		return RecordStorePostgres
	case strings.TrimSpace(mongoURI) != "":
		return RecordStoreMongo
	default:
		return RecordStoreMemory
	}
}

func normalizeScope(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), RetrievalScopeAny) {
		return RetrievalScopeAny
	}
	return RetrievalScopeOwn
}
