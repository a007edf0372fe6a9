package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strconv"
    "strings"
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
type Config struct {
    Env       string // application environment (e.g. "dev", "prod")
    Port      string // HTTP port to listen on
    DBUser    string // database username
    DBPass    string // database password (optional)
    DBHost    string // database host address
    DBPort    string // database port number
    DBName    string // database name
    JWTSecret string // secret used to verify access tokens

    DayStartHour int // first bookable hour of the availability day view
    DayEndHour   int // first hour past the last bookable slot

    SweepInterval    time.Duration // period of the background sweep ticker
    SweepMinInterval time.Duration // floor between two effective sweep passes
}

// Load reads configuration values from environment variables and
// returns a Config.
func Load() Config {
    return Config{
        Env:              must("APP_ENV"),
        Port:             must("APP_PORT"),
        DBUser:           must("DB_USER"),
        DBPass:           os.Getenv("DB_PASS"), // empty allowed
        DBHost:           must("DB_HOST"),
        DBPort:           must("DB_PORT"),
        DBName:           must("DB_NAME"),
        JWTSecret:        must("JWT_SECRET"),
        DayStartHour:     envIntDefault("DAY_START_HOUR", 6),
        DayEndHour:       envIntDefault("DAY_END_HOUR", 23),
        SweepInterval:    envDurDefault("SWEEP_INTERVAL", time.Minute),
        SweepMinInterval: envDurDefault("SWEEP_MIN_INTERVAL", 30*time.Second),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// envStrDefault reads an optional string variable.
func envStrDefault(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// envBoolDefault reads an optional boolean variable.  Accepted true
// spellings are "1", "true", "yes" and "on" in any case.
func envBoolDefault(key string, def bool) bool {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    switch strings.ToLower(s) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return def
}

// envIntDefault reads an optional integer variable.  A missing value
// falls back to the default; a malformed one is a configuration error.
func envIntDefault(key string, def int) int {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// envDurDefault reads an optional duration variable (e.g. "45s", "2m").
func envDurDefault(key string, def time.Duration) time.Duration {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    d, err := time.ParseDuration(s)
    if err != nil {
        log.Fatalf("invalid duration for %s: %q", key, s)
    }
    return d
}
