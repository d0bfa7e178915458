package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/fatih/color"

	"quiz_chain_solver/internal/service/page"
)

// Oracle — внешний сервис вычисления ответа; в тестах подменяется фейком.
type Oracle interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Credentials — корреляционные поля, которые викторина ждёт в каждой отправке.
type Credentials struct {
	Email  string
	Secret string
}

// Service — запуск одной цепочки. Вызывается из хендлера в отдельной
// горутине; вызывающий ответ не ждёт.
type Service interface {
	Run(ctx context.Context, startURL string, creds Credentials)
}

type chainSolver struct {
	oracle  Oracle
	budget  time.Duration
	maxHops int
}

func New(oracle Oracle, budget time.Duration, maxHops int) Service {
	return &chainSolver{oracle: oracle, budget: budget, maxHops: maxHops}
}

// Run прогоняет цепочку до конца и логирует исход. Ошибки наружу не выходят:
// это единственная видимость fire-and-forget контракта.
func (s *chainSolver) Run(ctx context.Context, startURL string, creds Credentials) {
	color.Cyan(fmt.Sprintf("Запускаем цепочку викторины: %s", startURL))

	if err := s.solve(ctx, startURL, creds); err != nil {
		color.Red(fmt.Sprintf("Цепочка прервана (start=%s): %v", startURL, err))
		return
	}
	color.Green(fmt.Sprintf("Цепочка успешно завершена (start=%s)", startURL))
}

// тело одной отправки: ответ плюс корреляционные поля, как ждёт викторина
type submitPayload struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
	Answer string `json:"answer"`
}

// Submission — разобранный ответ на отправку. Цепочка продолжается только
// если это валидный JSON с непустым url.
type Submission struct {
	Correct *bool  `json:"correct,omitempty"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *chainSolver) solve(ctx context.Context, startURL string, creds Credentials) error {
	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	// у каждой цепочки свой клиент; освобождаем при любом исходе
	client := &http.Client{Timeout: 15 * time.Second}
	defer client.CloseIdleConnections()
	fetcher := page.NewFetcher(client)

	current := startURL
	for hop := 1; ; hop++ {
		// общий потолок проверяем до каждой итерации
		if ctx.Err() != nil {
			return fmt.Errorf("%w after %d hops", ErrTimeout, hop-1)
		}
		if hop > s.maxHops {
			return fmt.Errorf("%w: %d hops", ErrHopLimit, s.maxHops)
		}

		next, err := s.step(ctx, client, fetcher, current, creds, hop)
		if err != nil {
			return fmt.Errorf("hop %d (%s): %w", hop, current, err)
		}
		if next == "" {
			log.Printf("chain complete after %d hop(s)", hop)
			return nil
		}
		current = next
	}
}

// step — один полный виток: fetch → extract → ask → submit. Возвращает url
// следующей страницы либо пустую строку, когда цепочка закончилась.
func (s *chainSolver) step(ctx context.Context, client *http.Client, fetcher *page.Fetcher, pageURL string, creds Credentials, hop int) (string, error) {
	color.Yellow(fmt.Sprintf("Хоп %d: загружаем страницу %s", hop, pageURL))

	p, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}

	question, err := page.ExtractQuestion(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	log.Printf("question extracted (%d bytes): %.80s", len(question), question)

	answer, err := s.oracle.Answer(ctx, question)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracle, err)
	}

	submitURL, err := page.ExtractSubmitURL(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmit, err)
	}

	result, err := s.submit(ctx, client, submitURL, submitPayload{
		Email:  creds.Email,
		Secret: creds.Secret,
		URL:    pageURL,
		Answer: answer,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmit, err)
	}

	if result.Correct != nil {
		log.Printf("submission result: correct=%v next=%q", *result.Correct, result.URL)
	}
	return result.URL, nil
}

func (s *chainSolver) submit(ctx context.Context, client *http.Client, submitURL string, payload submitPayload) (Submission, error) {
	var result Submission

	body, err := json.Marshal(payload)
	if err != nil {
		return result, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(body))
	if err != nil {
		return result, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return result, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, fmt.Errorf("submit http %d from %s: %.200s", resp.StatusCode, submitURL, string(raw))
	}

	// не-JSON в ответе — штатное завершение цепочки, а не ошибка
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Printf("submission response is not JSON, stopping chain: %.120s", string(raw))
		return Submission{}, nil
	}
	return result, nil
}
