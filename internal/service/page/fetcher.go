package page

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// страницы больше этого не читаем — дальше всё равно только текст вопроса
const maxFetchBytes = 512 * 1024

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Page — загруженное содержимое одного url цепочки. Живёт ровно одну
// итерацию цикла.
type Page struct {
	URL     string
	Raw     string
	Decoded string // расшифрованный base64-фрагмент, если он был на странице
}

// Fetcher загружает страницы викторины. Клиент принадлежит одной цепочке
// и передаётся снаружи.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch делает GET и возвращает страницу с уже извлечённым base64-фрагментом.
// Любой не-2xx статус — ошибка; ретраев здесь нет.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return Page{}, fmt.Errorf("page url is empty")
	}
	// исходный запрос мог прийти с чем угодно — наружу ходим только по http(s)
	u, err := url.Parse(trimmed)
	if err != nil {
		return Page{}, fmt.Errorf("invalid page url %q: %w", trimmed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Page{}, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmed, nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Page{}, fmt.Errorf("fetch http %d from %s: %s", resp.StatusCode, trimmed, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return Page{}, err
	}

	return New(trimmed, string(body)), nil
}

// New собирает Page из сырого текста: base64-фрагмент (если есть)
// расшифровывается сразу, ошибки расшифровки не фатальны — останется
// запасной путь по сырому HTML.
func New(pageURL, raw string) Page {
	decoded, _ := ExtractBase64Fragment(raw)
	return Page{URL: pageURL, Raw: raw, Decoded: decoded}
}
