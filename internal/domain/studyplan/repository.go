package studyplan

import "context"

// Repository хранит планы обучения вместе с целями.
type Repository interface {
	// Create сохраняет новый план.
	// Возвращает shared.ErrAlreadyExists, если у менти уже есть план.
	Create(ctx context.Context, p *Plan) error

	// GetByID возвращает план. Возвращает shared.ErrStudyPlanNotFound.
	GetByID(ctx context.Context, id string) (*Plan, error)

	// GetByMentee возвращает план менти. Возвращает shared.ErrStudyPlanNotFound.
	GetByMentee(ctx context.Context, menteeID string) (*Plan, error)

	// Save сохраняет цели плана.
	Save(ctx context.Context, p *Plan) error
}
