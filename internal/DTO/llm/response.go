package llm

// Response — структурированный вывод оракула: ровно одно поле answer,
// как того требует системный промпт.
type Response struct {
	Answer string `json:"answer"`
}
