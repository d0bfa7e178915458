package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	// плагины
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"

	// опции клиента OpenAI-совместимых API
	"github.com/openai/openai-go/option"

	"quiz_chain_solver/internal/config"
)

type initModel struct {
	cfg      *config.Config
	provider string
}

type InitModel interface {
	Init(ctx context.Context) (*genkit.Genkit, error)
	ModelName() string
}

// NewInitModel — фабрика genkit-инициализации под конкретного провайдера.
// Все ключи и адреса берутся из конфигурации, не из окружения.
func NewInitModel(cfg *config.Config, provider string) InitModel {
	return &initModel{cfg: cfg, provider: provider}
}

func (m *initModel) Init(ctx context.Context) (*genkit.Genkit, error) {
	switch strings.ToLower(strings.TrimSpace(m.provider)) {
	case "aipipe":
		return m.aipipe(ctx)
	case "openai":
		return m.openAi(ctx)
	case "deepseek":
		return m.deepseek(ctx)
	default:
		return nil, fmt.Errorf("unsupported provider: %q", m.provider)
	}
}

// ModelName — полное имя модели для genkit-реестра (с префиксом провайдера).
func (m *initModel) ModelName() string {
	switch strings.ToLower(strings.TrimSpace(m.provider)) {
	case "aipipe":
		return "aipipe/" + m.cfg.Model
	case "openai":
		if strings.HasPrefix(m.cfg.Model, "openai/") {
			return m.cfg.Model
		}
		return "openai/" + m.cfg.Model
	case "deepseek":
		return "deepseek/deepseek-chat"
	default:
		return m.cfg.Model
	}
}

// aipipe — openrouter-совместимый шлюз; базовый url и токен из конфигурации.
// Модель регистрируем вручную, как у любого compat_oai-провайдера без каталога.
func (m *initModel) aipipe(ctx context.Context) (*genkit.Genkit, error) {
	if m.cfg.AipipeToken == "" {
		return nil, errors.New("aipipe token is not configured")
	}
	base := m.cfg.AipipeURL
	if _, err := validateBaseURL(base); err != nil {
		return nil, fmt.Errorf("AIPIPE_URL: %w", err)
	}
	if err := preflightOpenAICompatible(ctx, base, m.cfg.AipipeToken); err != nil {
		return nil, fmt.Errorf("aipipe preflight failed: %w", err)
	}

	ap := &compat_oai.OpenAICompatible{
		Provider: "aipipe", // префикс в имени модели: aipipe/<model>
		Opts: []option.RequestOption{
			option.WithAPIKey(m.cfg.AipipeToken),
			option.WithBaseURL(base),
			option.WithMaxRetries(2),
		},
	}

	g := genkit.Init(ctx, genkit.WithPlugins(ap))

	ap.DefineModel(ap.Provider, m.cfg.Model, ai.ModelOptions{
		Supports: &compat_oai.BasicText,
		Label:    "AIPipe " + m.cfg.Model,
	})

	// sanity-check: модель действительно видна реестру
	if !ap.IsDefinedModel(g, m.ModelName()) {
		return nil, fmt.Errorf("model %s is not registered in Genkit registry", m.ModelName())
	}

	return g, nil
}

func (m *initModel) openAi(ctx context.Context) (*genkit.Genkit, error) {
	if m.cfg.OpenAIKey == "" {
		return nil, errors.New("openai api key is not configured")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(m.cfg.OpenAIKey),
	}
	if base := m.cfg.OpenAIURL; base != "" {
		if _, err := validateBaseURL(base); err != nil {
			return nil, fmt.Errorf("OPENAI_BASE_URL: %w", err)
		}
		opts = append(opts, option.WithBaseURL(base))
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{Opts: opts}))
	return g, nil
}

// deepseek — резервный провайдер; base_url + /v1 совместимы с OpenAI,
// /models существует, поэтому preflight дешёвый.
func (m *initModel) deepseek(ctx context.Context) (*genkit.Genkit, error) {
	if m.cfg.DeepseekKey == "" {
		return nil, errors.New("deepseek api key is not configured")
	}

	base := m.cfg.DeepseekURL
	if _, err := validateBaseURL(base); err != nil {
		return nil, fmt.Errorf("DEEPSEEK_BASE_URL: %w", err)
	}
	if err := preflightOpenAICompatible(ctx, base, m.cfg.DeepseekKey); err != nil {
		return nil, fmt.Errorf("deepseek preflight failed: %w", err)
	}

	ds := &compat_oai.OpenAICompatible{
		Provider: "deepseek",
		Opts: []option.RequestOption{
			option.WithAPIKey(m.cfg.DeepseekKey),
			option.WithBaseURL(base),
			option.WithMaxRetries(2),
		},
	}

	g := genkit.Init(ctx, genkit.WithPlugins(ds))

	ds.DefineModel(ds.Provider, "deepseek-chat", ai.ModelOptions{
		Supports: &compat_oai.BasicText,
		Label:    "DeepSeek Chat",
	})

	if !ds.IsDefinedModel(g, "deepseek/deepseek-chat") {
		return nil, errors.New("deepseek models are not registered in Genkit registry")
	}

	return g, nil
}

/* ------------------------ helpers ------------------------ */

func validateBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", raw)
	}
	return u, nil
}

// Лёгкая проверка доступности OpenAI-совместимого API: GET <base>/models
func preflightOpenAICompatible(parent context.Context, baseURL, apiKey string) error {
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	u := strings.TrimRight(baseURL, "/") + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { io.Copy(io.Discard, res.Body); res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", res.StatusCode, u)
	}
	return nil
}
