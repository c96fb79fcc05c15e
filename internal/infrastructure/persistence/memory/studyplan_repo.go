package memory

import (
	"context"
	"sync"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/studyplan"
)

// StudyPlanRepository stores study plans by ID with a mentee index.
type StudyPlanRepository struct {
	mu       sync.RWMutex
	byID     map[string]*studyplan.Plan
	byMentee map[string]string
}

// NewStudyPlanRepository creates an empty repository.
func NewStudyPlanRepository() *StudyPlanRepository {
	return &StudyPlanRepository{
		byID:     make(map[string]*studyplan.Plan),
		byMentee: make(map[string]string),
	}
}

// Create implements studyplan.Repository.
func (r *StudyPlanRepository) Create(_ context.Context, p *studyplan.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byMentee[p.MenteeID]; exists {
		return shared.NewDomainError("studyplan", "Create", shared.ErrAlreadyExists, "mentee already has a study plan")
	}
	r.byID[p.ID] = clonePlan(p)
	r.byMentee[p.MenteeID] = p.ID
	return nil
}

// GetByID implements studyplan.Repository.
func (r *StudyPlanRepository) GetByID(_ context.Context, id string) (*studyplan.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrStudyPlanNotFound
	}
	return clonePlan(p), nil
}

// GetByMentee implements studyplan.Repository.
func (r *StudyPlanRepository) GetByMentee(_ context.Context, menteeID string) (*studyplan.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byMentee[menteeID]
	if !ok {
		return nil, shared.ErrStudyPlanNotFound
	}
	return clonePlan(r.byID[id]), nil
}

// Save implements studyplan.Repository.
func (r *StudyPlanRepository) Save(_ context.Context, p *studyplan.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; !ok {
		return shared.ErrStudyPlanNotFound
	}
	r.byID[p.ID] = clonePlan(p)
	return nil
}

func clonePlan(p *studyplan.Plan) *studyplan.Plan {
	goals := p.Goals()
	for i, g := range goals {
		c := *g
		goals[i] = &c
	}
	return studyplan.Restore(p.ID, p.MenteeID, goals)
}
