// Package user содержит доменную модель пользователя платформы менторства.
// Одна идентичность (User) плюс опциональные профили ментора и менти.
package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// passwordCost - стоимость bcrypt; тесты понижают её.
var passwordCost = bcrypt.DefaultCost

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role определяет, в каком качестве пользователь зарегистрирован.
type Role string

const (
	// RoleMentor - пользователь проводит сессии.
	RoleMentor Role = "mentor"
	// RoleMentee - пользователь получает менторство.
	RoleMentee Role = "mentee"
)

// IsValid проверяет, что роль корректна.
func (r Role) IsValid() bool {
	return r == RoleMentor || r == RoleMentee
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILES
// ══════════════════════════════════════════════════════════════════════════════

// MentorProfile - возможности ментора. Ссылается на идентичность, а не наследует её.
type MentorProfile struct {
	// Bio - биография.
	Bio string

	// KnowledgeArea - область знаний, например "Backend".
	KnowledgeArea string

	// Technologies - технологии без повторов (сравнение без учёта регистра).
	Technologies []shared.Technology
}

// AddTechnology добавляет технологию. Повтор игнорируется, возвращает false.
func (p *MentorProfile) AddTechnology(t shared.Technology) bool {
	if t == "" {
		return false
	}
	for _, existing := range p.Technologies {
		if existing.Key() == t.Key() {
			return false
		}
	}
	p.Technologies = append(p.Technologies, t)
	return true
}

// MenteeProfile - возможности менти.
type MenteeProfile struct {
	// StudyPlanID - план обучения менти (пусто, пока план не создан).
	StudyPlanID string
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER
// ══════════════════════════════════════════════════════════════════════════════

// User - участник платформы.
type User struct {
	ID           string
	Name         string
	Email        shared.Email
	PasswordHash string

	// Ровно один из профилей заполнен, в зависимости от роли.
	Mentor *MentorProfile
	Mentee *MenteeProfile

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUserParams содержит параметры для регистрации пользователя.
type NewUserParams struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     Role
	Now      time.Time

	// Только для менторов.
	Bio           string
	KnowledgeArea string
	Technologies  []string
}

// NewUser создаёт пользователя с валидацией и хешем пароля.
func NewUser(params NewUserParams) (*User, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("user", "NewUser", shared.ErrInvalidID, "user id is required")
	}

	name := strings.TrimSpace(params.Name)
	if name == "" || len(name) > 100 {
		return nil, shared.NewDomainError("user", "NewUser", shared.ErrInvalidInput, "name must be 1-100 chars")
	}

	email, err := shared.NewEmail(params.Email)
	if err != nil {
		return nil, err
	}

	if len(params.Password) < 6 {
		return nil, shared.NewDomainError("user", "NewUser", shared.ErrInvalidInput, "password must be at least 6 chars")
	}

	if !params.Role.IsValid() {
		return nil, shared.NewDomainError("user", "NewUser", shared.ErrInvalidInput, "role must be mentor or mentee")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), passwordCost)
	if err != nil {
		return nil, shared.WrapError("user", "NewUser", shared.ErrInvalidInput, "cannot hash password", err)
	}

	u := &User{
		ID:           params.ID,
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    params.Now,
		UpdatedAt:    params.Now,
	}

	switch params.Role {
	case RoleMentor:
		u.Mentor = &MentorProfile{
			Bio:           strings.TrimSpace(params.Bio),
			KnowledgeArea: strings.TrimSpace(params.KnowledgeArea),
		}
		for _, raw := range params.Technologies {
			tech, err := shared.NewTechnology(raw)
			if err != nil {
				return nil, err
			}
			u.Mentor.AddTechnology(tech)
		}
	case RoleMentee:
		u.Mentee = &MenteeProfile{}
	}

	return u, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// Role возвращает роль пользователя.
func (u *User) Role() Role {
	if u.Mentor != nil {
		return RoleMentor
	}
	return RoleMentee
}

// IsMentor возвращает true для менторов.
func (u *User) IsMentor() bool {
	return u.Mentor != nil
}

// IsMentee возвращает true для менти.
func (u *User) IsMentee() bool {
	return u.Mentee != nil
}

// Login проверяет учётные данные. Оба поля обязательны.
func (u *User) Login(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return shared.NewDomainError("user", "Login", shared.ErrInvalidInput, "email and password are required")
	}
	if !strings.EqualFold(strings.TrimSpace(email), u.Email.String()) {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return shared.ErrInvalidCredentials
	}
	return nil
}

// AttachStudyPlan связывает менти с его планом обучения.
func (u *User) AttachStudyPlan(planID string, now time.Time) error {
	if u.Mentee == nil {
		return shared.ErrNotAMentee
	}
	u.Mentee.StudyPlanID = planID
	u.UpdatedAt = now
	return nil
}

// Same сравнивает пользователей по идентификатору.
func (u *User) Same(other *User) bool {
	return u != nil && other != nil && u.ID == other.ID
}
