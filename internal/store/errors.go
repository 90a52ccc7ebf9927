package store

import "errors"

// Общие ошибки датастора.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrTaskNotFound — task не найден.
	ErrTaskNotFound = errors.New("task not found")

	// ErrConflictingID — schedule с таким ID уже существует
	// (возвращается только при ConflictPolicyFail).
	ErrConflictingID = errors.New("conflicting schedule id")

	// ErrInvalidConflictPolicy — неизвестная политика конфликтов.
	ErrInvalidConflictPolicy = errors.New("invalid conflict policy")
)
