package handler

import (
	"context"
	"encoding/json"
	"log"
	stdhttp "net/http"
	"strings"

	DTO_http "quiz_chain_solver/internal/DTO/http"
	"quiz_chain_solver/internal/service/solver"
)

// форматы ошибок
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// фабрика хендлера: пробрасываем секрет и зависимость на решатель цепочек.
// Хендлер отвечает сразу; цепочка живёт в своей горутине со своим контекстом
// и вызывающего никак не касается.
func NewReceiveRequestHandler(secretKey string, svc solver.Service) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		// только JSON
		if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
			writeJSON(w, stdhttp.StatusUnsupportedMediaType, errorResponse{
				Error:   "unsupported_media_type",
				Details: "Content-Type must be application/json",
			})
			return
		}

		// парсим тело
		var req DTO_http.QuizRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, stdhttp.StatusBadRequest, errorResponse{
				Error:   "invalid_json",
				Details: err.Error(),
			})
			return
		}

		// проверка секрета — до любой другой работы; при несовпадении
		// цепочка не стартует и url не трогаем
		if req.Secret == "" {
			writeJSON(w, stdhttp.StatusBadRequest, errorResponse{
				Error:   "validation_error",
				Details: "secret is required",
			})
			return
		}
		if req.Secret != secretKey {
			writeJSON(w, stdhttp.StatusForbidden, errorResponse{
				Error: "forbidden",
			})
			return
		}

		// валидация (минимальная)
		if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.Email) == "" {
			writeJSON(w, stdhttp.StatusBadRequest, errorResponse{
				Error:   "validation_error",
				Details: "missing required fields (url/email)",
			})
			return
		}

		log.Printf("accepted quiz request for %s, start url %s", req.Email, req.URL)

		// fire-and-forget: контекст запроса умрёт вместе с ответом,
		// поэтому цепочке даём фоновый
		go svc.Run(context.Background(), req.URL, solver.Credentials{
			Email:  req.Email,
			Secret: req.Secret,
		})

		writeJSON(w, stdhttp.StatusOK, DTO_http.AcceptedResponse{Message: "Request accepted"})
	}
}

func writeJSON(w stdhttp.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
