package solver

import "errors"

// Классы отказов цепочки. Любой из них завершает только свою цепочку —
// входящий запрос к этому моменту уже давно получил ответ.
var (
	ErrFetch      = errors.New("fetch failed")
	ErrExtraction = errors.New("question extraction failed")
	ErrOracle     = errors.New("oracle failed")
	ErrSubmit     = errors.New("submit failed")

	// ErrTimeout — исчерпан общий потолок времени цепочки; не путать
	// с таймаутами отдельных сетевых вызовов.
	ErrTimeout = errors.New("chain time budget exceeded")

	// ErrHopLimit — защита от бесконечных редиректов злонамеренной викторины.
	ErrHopLimit = errors.New("hop limit exceeded")
)
