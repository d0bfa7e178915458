package page

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// страницы прячут разметку в <script> через atob("...")
var reAtob = regexp.MustCompile(`atob\(\s*["']([A-Za-z0-9+/=_-]+)["']\s*\)`)

// абсолютные url в тексте страницы
var reAbsURL = regexp.MustCompile(`https?://[^\s"'<>\\)]+`)

// селекторы текста вопроса, в порядке убывания уверенности
var questionSelectors = []string{"#question", ".question", "main p", "article p", "p", "h1", "h2", "h3"}

// ExtractBase64Fragment ищет первый atob-блок, который действительно
// расшифровывается. Возвращает расшифрованный HTML.
func ExtractBase64Fragment(raw string) (string, bool) {
	for _, m := range reAtob.FindAllStringSubmatch(raw, -1) {
		payload := m[1]
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// некоторые страницы кодируют url-safe алфавитом
			decoded, err = base64.URLEncoding.DecodeString(payload)
		}
		if err == nil && len(decoded) > 0 {
			return string(decoded), true
		}
	}
	return "", false
}

// ExtractQuestion достаёт видимый текст вопроса. Сначала из расшифрованного
// фрагмента, затем — запасной путь по сырой странице. Если текста нет нигде,
// цепочка на этом закончится.
func ExtractQuestion(p Page) (string, error) {
	if p.Decoded != "" {
		if q, ok := questionFromHTML(p.Decoded); ok {
			return q, nil
		}
	}
	if q, ok := questionFromHTML(p.Raw); ok {
		return q, nil
	}
	return "", fmt.Errorf("no recognizable question text at %s", p.URL)
}

func questionFromHTML(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	// скрипты в тексте вопроса не нужны
	doc.Find("script, style").Remove()
	for _, sel := range questionSelectors {
		text := ""
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			t := strings.TrimSpace(s.Text())
			if t != "" {
				text = t
				return false
			}
			return true
		})
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// ExtractSubmitURL ищет адрес для отправки ответа: сперва action формы,
// потом любой абсолютный url со словом submit. Относительные адреса
// резолвим против адреса страницы.
func ExtractSubmitURL(p Page) (string, error) {
	for _, html := range []string{p.Decoded, p.Raw} {
		if html == "" {
			continue
		}
		if action, ok := formAction(html); ok {
			return resolveAgainst(p.URL, action)
		}
	}
	for _, text := range []string{p.Decoded, p.Raw} {
		for _, u := range reAbsURL.FindAllString(text, -1) {
			if strings.Contains(strings.ToLower(u), "submit") {
				return strings.TrimRight(u, ".,;"), nil
			}
		}
	}
	return "", fmt.Errorf("no submit endpoint found at %s", p.URL)
}

func formAction(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	action, exists := doc.Find("form[action]").First().Attr("action")
	if !exists || strings.TrimSpace(action) == "" {
		return "", false
	}
	return strings.TrimSpace(action), true
}

func resolveAgainst(pageURL, ref string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("bad page url %q: %w", pageURL, err)
	}
	target, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("bad submit url %q: %w", ref, err)
	}
	return base.ResolveReference(target).String(), nil
}
