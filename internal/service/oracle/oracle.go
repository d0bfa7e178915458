package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	DTO_llm "quiz_chain_solver/internal/DTO/llm"
	"quiz_chain_solver/internal/config"
	config_llm "quiz_chain_solver/internal/config/llm"
	service_llm "quiz_chain_solver/internal/service/llm"
)

// Oracle отвечает на текст вопроса текстом ответа. Получает только текст,
// никогда HTML и никогда код.
type Oracle interface {
	Answer(ctx context.Context, question string) (string, error)
}

type generateFunc func(ctx context.Context, question string) (DTO_llm.Response, error)

type service struct {
	cfg *config.Config

	mu        sync.Mutex
	modelName string
	gen       generateFunc // подменяется в тестах

	pause time.Duration
}

func New(cfg *config.Config) Oracle {
	return &service{cfg: cfg, pause: 200 * time.Millisecond}
}

// Answer спрашивает модель с ограниченным числом повторов. Повторяем всё
// транзиентное: ошибку генерации, пустой ответ, непарсящийся вывод.
func (s *service) Answer(ctx context.Context, question string) (string, error) {
	const maxAttempt = 3

	gen, err := s.generator(ctx)
	if err != nil {
		return "", err
	}

	var lastErr error
	for i := 1; i <= maxAttempt; i++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		out, genErr := gen(ctx, question)
		if genErr != nil {
			color.Red(fmt.Sprintf("Ошибка при работе с моделью (попытка %d/%d) - %v", i, maxAttempt, genErr))
			lastErr = genErr
		} else if strings.TrimSpace(out.Answer) == "" {
			color.Red(fmt.Sprintf("Модель вернула пустой ответ (попытка %d/%d)", i, maxAttempt))
			lastErr = errors.New("model returned empty answer")
		} else {
			color.Green("Ответ от ИИ был успешно получен!")
			return strings.TrimSpace(out.Answer), nil
		}

		if i < maxAttempt {
			time.Sleep(time.Duration(1<<uint(i-1)) * s.pause) // экспоненциальная пауза
		}
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", maxAttempt, lastErr)
}

// generator лениво инициализирует genkit с ретраями. После 2 неудачных
// попыток переключаемся на резервную модель deepseek, если настроен ключ.
func (s *service) generator(ctx context.Context) (generateFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != nil {
		return s.gen, nil
	}

	const maxAttempt = 5

	llmService := service_llm.NewInitModel(s.cfg, s.cfg.Provider)
	var (
		g   *genkit.Genkit
		err error
	)
	for i := 1; i <= maxAttempt; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g, err = llmService.Init(ctx)
		if err == nil {
			break
		}

		// fallback после 2 неудачных попыток
		if i > 2 && s.cfg.DeepseekKey != "" {
			color.Yellow(fmt.Sprintf("Переключаемся на резервную модель deepseek после %d неудачных попыток", i))
			llmService = service_llm.NewInitModel(s.cfg, "deepseek")
			g, err = llmService.Init(ctx)
			if err == nil {
				break
			}
		}

		if i == maxAttempt {
			return nil, fmt.Errorf("failed to initialize model after %d attempts: %w", i, err)
		}
		time.Sleep(time.Duration(1<<uint(i-1)) * s.pause)
	}

	s.modelName = llmService.ModelName()
	color.Yellow(fmt.Sprintf("Определена модель - %s", s.modelName))

	modelName := s.modelName
	s.gen = func(ctx context.Context, question string) (DTO_llm.Response, error) {
		return generate(ctx, g, modelName, question)
	}
	return s.gen, nil
}

func generate(ctx context.Context, g *genkit.Genkit, modelName, question string) (DTO_llm.Response, error) {
	var out DTO_llm.Response

	resp, err := genkit.Generate(
		ctx,
		g,
		ai.WithSystem(config_llm.Prompt),
		ai.WithPrompt(question),
		ai.WithModelName(modelName),
		ai.WithOutputType(DTO_llm.Response{}),
	)
	if err != nil {
		return out, err
	}
	if resp == nil {
		return out, errors.New("model returned nil response")
	}

	if resp.Usage == nil {
		log.Printf("token usage is nil (model=%s)", modelName)
	} else {
		log.Printf("usage in=%d out=%d", resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	if outErr := resp.Output(&out); outErr != nil {
		// модели любят заворачивать JSON в markdown-заборы — пробуем снять
		lenient, lenErr := decodeAnswer(resp.Text())
		if lenErr != nil {
			return out, fmt.Errorf("unparsable model output: %w", outErr)
		}
		return lenient, nil
	}
	return out, nil
}

var reFence = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

// decodeAnswer — запасной разбор текста модели: снимаем кодовый забор,
// если он есть, и парсим JSON с полем answer.
func decodeAnswer(text string) (DTO_llm.Response, error) {
	var out DTO_llm.Response

	body := strings.TrimSpace(text)
	if m := reFence.FindStringSubmatch(body); m != nil {
		body = strings.TrimSpace(m[1])
	}

	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, fmt.Errorf("model output is not {answer: ...} JSON: %w", err)
	}
	return out, nil
}
