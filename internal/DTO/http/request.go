package http

// QuizRequest — тело POST /receive_request. Создаётся один раз на входящий
// вызов и после запуска фоновой цепочки больше никем не используется.
type QuizRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// AcceptedResponse — мгновенный ответ на принятый запрос; цепочку не ждём.
type AcceptedResponse struct {
	Message string `json:"message"`
}

// ServiceInfo — ответ корневого эндпоинта.
type ServiceInfo struct {
	Service  string `json:"service"`
	Endpoint string `json:"endpoint"`
}
