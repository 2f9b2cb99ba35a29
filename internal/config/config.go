// internal/config/config.go
//
// Process configuration read from the environment (and `.env` in development).

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the server.
type Config struct {
	Port            string
	LogLevel        string
	DBPath          string
	DictionariesDir string // empty → embedded dictionaries
	GeneralTheme    string
	ClientOrigin    string
	JWTSecret       string
	JWTExpiresDays  int
	CookieName      string
	Production      bool
	WSRate          float64 // inbound frames per second per connection
	WSBurst         int
}

// Load reads `.env` if present, then the environment, applying defaults.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:            GetEnv("PORT", "5175"),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
		DBPath:          GetEnv("DB_PATH", "./data/crossword.db"),
		DictionariesDir: os.Getenv("DICTIONARIES_DIR"),
		GeneralTheme:    GetEnv("GENERAL_THEME", "gerais"),
		ClientOrigin:    GetEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:       GetEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays:  getInt("JWT_EXPIRES_DAYS", 14),
		CookieName:      GetEnv("COOKIE_NAME", "crossword_token"),
		Production:      os.Getenv("NODE_ENV") == "production",
		WSRate:          float64(getInt("WS_MESSAGES_PER_SECOND", 20)),
		WSBurst:         getInt("WS_BURST", 40),
	}
}

// GetEnv returns the value of k or def if unset/empty.
func GetEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
