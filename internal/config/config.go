package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret string
	// AllowDevLogin accepts username==password when the users table has no
	// matching row. Offline/dev only.
	AllowDevLogin bool

	// EnforceTimeLimit is a policy hook: completion past a quiz's advisory
	// time limit is logged when set, never rejected.
	EnforceTimeLimit bool

	// AssetBasePath roots the filesystem slide-asset store.
	AssetBasePath string

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

// FromEnv loads .env when present, then reads the environment.
func FromEnv() Config {
	_ = godotenv.Load()

	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           addr,
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		AuthSecret:         envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AllowDevLogin:      envBool("ALLOW_DEV_LOGIN", mode == ModeOffline),
		EnforceTimeLimit:   envBool("ENFORCE_TIME_LIMIT", false),
		AssetBasePath:      envOr("ASSET_BASE_PATH", "./data/assets"),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://lms.skillpath.io"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
