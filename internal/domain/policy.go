package domain

import "fmt"

// ConflictPolicy — поведение при вставке schedule с уже занятым ID.
//
// Множество политик закрытое: неизвестное значение отклоняется до
// какой-либо мутации в датасторе.
type ConflictPolicy string

const (
	// ConflictPolicyFail — вернуть ошибку конфликта, ничего не менять.
	ConflictPolicyFail ConflictPolicy = "fail"

	// ConflictPolicyReplace — перезаписать существующий schedule.
	ConflictPolicyReplace ConflictPolicy = "replace"

	// ConflictPolicySkip — молча отбросить вставку: без перезаписи,
	// без ошибки, без события.
	ConflictPolicySkip ConflictPolicy = "skip"
)

// Validate возвращает ошибку для неизвестной политики.
func (p ConflictPolicy) Validate() error {
	switch p {
	case ConflictPolicyFail, ConflictPolicyReplace, ConflictPolicySkip:
		return nil
	default:
		return fmt.Errorf("unknown conflict policy %q", string(p))
	}
}

// ParseConflictPolicy парсит строку в ConflictPolicy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	p := ConflictPolicy(s)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}
