// Package studyplan содержит план обучения менти и его цели.
package studyplan

import (
	"strings"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// StatusCompleted - статус выполненной цели. Сравнение без учёта регистра.
const StatusCompleted = "Completed"

// Goal - одна цель плана.
type Goal struct {
	ID          string
	Description string
	Status      string
	DueAt       time.Time
}

// NewGoal создаёт цель в статусе "Open".
func NewGoal(id, description string, dueAt time.Time) (*Goal, error) {
	if id == "" {
		return nil, shared.NewDomainError("studyplan", "NewGoal", shared.ErrInvalidID, "goal id is required")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("studyplan", "NewGoal", shared.ErrEmptyValue, "goal description is required")
	}
	return &Goal{ID: id, Description: description, Status: "Open", DueAt: dueAt}, nil
}

// UpdateStatus меняет статус цели. Пустое значение игнорируется.
func (g *Goal) UpdateStatus(status string) bool {
	status = strings.TrimSpace(status)
	if status == "" {
		return false
	}
	g.Status = status
	return true
}

// IsCompleted возвращает true для выполненной цели.
func (g *Goal) IsCompleted() bool {
	return strings.EqualFold(strings.TrimSpace(g.Status), StatusCompleted)
}

// IsOverdue возвращает true, если срок прошёл, а цель не выполнена.
func (g *Goal) IsOverdue(now time.Time) bool {
	return !g.DueAt.IsZero() && now.After(g.DueAt) && !g.IsCompleted()
}

// Plan - план обучения одного менти.
type Plan struct {
	ID       string
	MenteeID string

	goals []*Goal
}

// New создаёт пустой план.
func New(id, menteeID string) (*Plan, error) {
	if id == "" || menteeID == "" {
		return nil, shared.NewDomainError("studyplan", "New", shared.ErrInvalidID, "plan id and mentee id are required")
	}
	return &Plan{ID: id, MenteeID: menteeID}, nil
}

// Restore собирает план из хранилища.
func Restore(id, menteeID string, goals []*Goal) *Plan {
	p := &Plan{ID: id, MenteeID: menteeID}
	for _, g := range goals {
		p.AddGoal(g)
	}
	return p
}

// AddGoal добавляет цель. nil и повтор по ID игнорируются.
func (p *Plan) AddGoal(g *Goal) bool {
	if g == nil || p.Goal(g.ID) != nil {
		return false
	}
	p.goals = append(p.goals, g)
	return true
}

// Goal возвращает цель по ID или nil.
func (p *Plan) Goal(id string) *Goal {
	for _, g := range p.goals {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// Goals возвращает копию списка целей.
func (p *Plan) Goals() []*Goal {
	out := make([]*Goal, len(p.goals))
	copy(out, p.goals)
	return out
}

// Progress возвращает процент выполненных целей в [0,100]; 0 для пустого плана.
func (p *Plan) Progress() float64 {
	if len(p.goals) == 0 {
		return 0
	}
	done := 0
	for _, g := range p.goals {
		if g.IsCompleted() {
			done++
		}
	}
	return float64(done) * 100 / float64(len(p.goals))
}
