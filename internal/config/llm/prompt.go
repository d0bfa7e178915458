package llm

// Prompt — системный промпт оракула. Модели отправляется только текст
// вопроса, никогда сырой HTML и никогда исполняемый код; в ответ ждём
// строго один JSON-объект с полем answer.
const Prompt = `You are a quiz-solving assistant.
You will be given the text of a single quiz question.
Answer the question and return ONLY valid JSON of the form {"answer": "..."}.
No markdown, no backticks, no explanation, no extra fields.`
