package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by PERSONACORE_ENV (or .env by
// default), then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("PERSONACORE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func RedisAddr() string {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return "localhost:6379"
	}
	return addr
}

func RedisPassword() string {
	return os.Getenv("REDIS_PASSWORD")
}

func RedisDB() int {
	db, err := strconv.Atoi(os.Getenv("REDIS_DB"))
	if err != nil {
		return 0
	}
	return db
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// GeneratorProvider returns the configured text-generation provider.
// Defaults to "openai" if not set.
// Valid values: openai, anthropic, mock
func GeneratorProvider() string {
	p := os.Getenv("GENERATOR_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// GeneratorAPIKey returns the API key for the configured generator.
func GeneratorAPIKey() string {
	switch GeneratorProvider() {
	case "anthropic":
		return AnthropicAPIKey()
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// ScorerProvider returns the configured text-to-vector provider.
// Defaults to "heuristic" if not set.
// Valid values: heuristic, onnx, mock
func ScorerProvider() string {
	p := os.Getenv("SCORER_PROVIDER")
	if p == "" {
		return "heuristic"
	}
	return p
}

// ONNXModelPath is the path to the embedding model used by the onnx
// scorer, if enabled.
func ONNXModelPath() string {
	return os.Getenv("ONNX_MODEL_PATH")
}

// ONNXTokenizerPath is the path to the tokenizer.json for the onnx
// scorer, if enabled.
func ONNXTokenizerPath() string {
	return os.Getenv("ONNX_TOKENIZER_PATH")
}

// DriftThreshold is the drift score above which a correction directive
// is issued. Default 0.3.
func DriftThreshold() float64 {
	v, err := strconv.ParseFloat(os.Getenv("DRIFT_THRESHOLD"), 64)
	if err != nil || v <= 0 || v > 1 {
		return 0.3
	}
	return v
}

// VariationRange bounds per-turn contextual variation. Default 0.15.
func VariationRange() float64 {
	v, err := strconv.ParseFloat(os.Getenv("VARIATION_RANGE"), 64)
	if err != nil || v <= 0 || v > 1 {
		return 0.15
	}
	return v
}

// MaxRegenerations caps the detect-correct-regenerate loop per turn.
// Default 2.
func MaxRegenerations() int {
	n, err := strconv.Atoi(os.Getenv("MAX_REGENERATIONS"))
	if err != nil || n < 0 {
		return 2
	}
	return n
}

func APIKey() string {
	return os.Getenv("API_KEY")
}

func RateLimitRPS() float64 {
	v, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || v <= 0 {
		return 50
	}
	return v
}

func RateLimitBurst() int {
	n, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || n <= 0 {
		return 100
	}
	return n
}
