package worker

import "errors"

// Ошибки воркера.
var (
	// ErrUnknownExecutor — нет executor'а с таким именем.
	ErrUnknownExecutor = errors.New("unknown executor")

	// ErrHTTPRequest — HTTP-запрос завершился ошибкой.
	ErrHTTPRequest = errors.New("http request failed")
)
