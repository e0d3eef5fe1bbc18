package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string

	Environment string // "production" disables every bypass

	// Callback signing between the task worker and the callback endpoints.
	TaskSigningSecret string
	TaskIssuer        string
	CallbackBaseURL   string
	TaskAuthDisabled  bool

	// Queue names per job family.
	QueueEngage    string
	QueueCleanup   string
	QueueLifecycle string

	ClassifierURL string

	// Moderation thresholds and penalties.
	FlagThreshold   float64
	BlockThreshold  float64
	StandardPenalty int
	MaxScore        int
	Denylist        []string

	// Engagement.
	MaxActorsPerPost int
	EngageWindow     int // hours over which synthetic activity is spread
	ReactionVocab    []string

	// Cleanup / lifecycle.
	CleanupBatchLimit   int
	GraceDays           int
	StaleDays           int
	NeverActiveDays     int
	LifecycleSweepHours int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",

		JWTSecret: mustGetenv("JWT_SECRET"),

		Environment: getenv("ENVIRONMENT", "development"),

		TaskSigningSecret: mustGetenv("TASK_SIGNING_SECRET"),
		TaskIssuer:        getenv("TASK_ISSUER", "chorus-tasks"),
		CallbackBaseURL:   getenv("CALLBACK_BASE_URL", "http://localhost:8080"),

		QueueEngage:    getenv("QUEUE_ENGAGE", "engage"),
		QueueCleanup:   getenv("QUEUE_CLEANUP", "cleanup"),
		QueueLifecycle: getenv("QUEUE_LIFECYCLE", "lifecycle"),

		ClassifierURL: getenv("CLASSIFIER_URL", ""),

		FlagThreshold:   getfloat("MOD_FLAG_THRESHOLD", 0.5),
		BlockThreshold:  getfloat("MOD_BLOCK_THRESHOLD", 0.7),
		StandardPenalty: getint("STANDARD_PENALTY", 5),
		MaxScore:        getint("MAX_SCORE", 100),

		MaxActorsPerPost: getint("MAX_ACTORS_PER_POST", 5),
		EngageWindow:     getint("ENGAGE_WINDOW_HOURS", 6),

		CleanupBatchLimit:   getint("CLEANUP_BATCH_LIMIT", 100),
		GraceDays:           getint("LIFECYCLE_GRACE_DAYS", 7),
		StaleDays:           getint("LIFECYCLE_STALE_DAYS", 365),
		NeverActiveDays:     getint("LIFECYCLE_NEVER_ACTIVE_DAYS", 30),
		LifecycleSweepHours: getint("LIFECYCLE_SWEEP_HOURS", 24),
	}

	// Bypass is only honored outside production, regardless of the flag.
	cfg.TaskAuthDisabled = getenv("TASK_AUTH_DISABLED", "false") == "true" &&
		cfg.Environment != "production"

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	cfg.Denylist = getlist("DENYLIST", nil)
	cfg.ReactionVocab = getlist("REACTION_VOCAB", []string{
		"❤️", "🔥", "👏", "💯", "😂", "🙌", "✨",
	})

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}

func getint(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getfloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getlist(key string, def []string) []string {
	raw := strings.Split(getenv(key, ""), ",")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
