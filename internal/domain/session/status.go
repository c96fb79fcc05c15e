package session

import "strings"

// Status - состояние сессии в жизненном цикле.
type Status string

const (
	// StatusPending - сессия запрошена и ждёт решения ментора.
	StatusPending Status = "pending"
	// StatusApproved - одобрена, требует ручной проверки доступности.
	StatusApproved Status = "approved"
	// StatusApprovedPriority - одобрена движком с приоритетом.
	StatusApprovedPriority Status = "approved_priority"
	// StatusApprovedNormal - одобрена движком в обычном порядке.
	StatusApprovedNormal Status = "approved_normal"
	// StatusApprovedConditional - одобрена движком условно.
	StatusApprovedConditional Status = "approved_conditional"
	// StatusRefused - отклонена. Выхода из этого состояния нет.
	StatusRefused Status = "refused"
	// StatusStarted - сессия идёт.
	StatusStarted Status = "started"
	// StatusFinished - сессия завершена, можно оставлять отзывы.
	StatusFinished Status = "finished"
	// StatusCancelled - сессия отменена.
	StatusCancelled Status = "cancelled"
)

var labels = map[Status]string{
	StatusPending:             "Pending",
	StatusApproved:            "Approved (review availability)",
	StatusApprovedPriority:    "Approved with priority",
	StatusApprovedNormal:      "Approved (normal)",
	StatusApprovedConditional: "Approved (conditional)",
	StatusRefused:             "Refused (too short notice)",
	StatusStarted:             "Started",
	StatusFinished:            "Finished",
	StatusCancelled:           "Cancelled",
}

// ParseStatus разбирает имя статуса без учёта регистра и пробелов по краям.
// Принимает как код ("approved_priority"), так и CamelCase ("ApprovedPriority").
func ParseStatus(name string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if s := Status(key); s.IsValid() {
		return s, true
	}
	compact := strings.ReplaceAll(key, "_", "")
	for s := range labels {
		if strings.ReplaceAll(string(s), "_", "") == compact {
			return s, true
		}
	}
	return "", false
}

// IsValid проверяет, что статус известен.
func (s Status) IsValid() bool {
	_, ok := labels[s]
	return ok
}

// Label возвращает человекочитаемое название статуса.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// IsApproved возвращает true для любого варианта одобрения.
func (s Status) IsApproved() bool {
	switch s {
	case StatusApproved, StatusApprovedPriority, StatusApprovedNormal, StatusApprovedConditional:
		return true
	default:
		return false
	}
}

// IsEngineTier возвращает true для уровней, которые выставляет только движок одобрения.
func (s Status) IsEngineTier() bool {
	switch s {
	case StatusApprovedPriority, StatusApprovedNormal, StatusApprovedConditional:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true, если из статуса нет переходов.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusCancelled || s == StatusRefused
}

func (s Status) String() string {
	return string(s)
}
