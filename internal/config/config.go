package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config — неизменяемая конфигурация процесса: собирается один раз в main
// и передаётся явно, без глобальных обращений к окружению по ходу работы.
type Config struct {
	SecretKey   string // общий секрет для валидации входящих запросов
	AipipeToken string // bearer-токен для LLM-шлюза

	AipipeURL string
	Model     string
	Provider  string

	// необязательные ключи резервных провайдеров
	OpenAIKey   string
	OpenAIURL   string
	DeepseekKey string
	DeepseekURL string

	Port        string
	ChainBudget time.Duration // общий потолок времени на одну цепочку
	MaxHops     int           // явный предел переходов по url
}

// Load читает окружение. Отсутствие любого из двух секретов — фатальная
// ошибка конфигурации, сервис без них не стартует.
func Load() (*Config, error) {
	secretKey := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secretKey == "" {
		return nil, fmt.Errorf("missing required env SECRET_KEY")
	}
	aipipeToken := strings.TrimSpace(os.Getenv("AIPIPE_TOKEN"))
	if aipipeToken == "" {
		return nil, fmt.Errorf("missing required env AIPIPE_TOKEN")
	}

	budgetSeconds, err := strconv.Atoi(getenvOr("CHAIN_BUDGET_SECONDS", "180"))
	if err != nil || budgetSeconds <= 0 {
		return nil, fmt.Errorf("invalid CHAIN_BUDGET_SECONDS: %q", os.Getenv("CHAIN_BUDGET_SECONDS"))
	}
	maxHops, err := strconv.Atoi(getenvOr("MAX_HOPS", "25"))
	if err != nil || maxHops <= 0 {
		return nil, fmt.Errorf("invalid MAX_HOPS: %q", os.Getenv("MAX_HOPS"))
	}

	return &Config{
		SecretKey:   secretKey,
		AipipeToken: aipipeToken,
		AipipeURL:   getenvOr("AIPIPE_URL", "https://aipipe.org/openrouter/v1"),
		Model:       getenvOr("LLM_MODEL", "openai/gpt-4.1-nano"),
		Provider:    getenvOr("LLM_PROVIDER", "aipipe"),
		OpenAIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIURL:   strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		DeepseekKey: strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY")),
		DeepseekURL: getenvOr("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
		Port:        getenvOr("PORT", "8000"),
		ChainBudget: time.Duration(budgetSeconds) * time.Second,
		MaxHops:     maxHops,
	}, nil
}

func getenvOr(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
