package agents

import (
	"context"
	"time"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/bdticketpro/backoffice/internal/repository"
	"github.com/sirupsen/logrus"
)

type AgentUseCase interface {
	List(ctx context.Context) ([]domain.Agent, error)
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
	CommissionStats(ctx context.Context, agentID int64, from, to time.Time) (*domain.CommissionStats, error)
	UpdateCommissionRate(ctx context.Context, agentID int64, rate float64) (*domain.Agent, error)
}

type AgentService struct {
	agents      repository.AgentRepository
	commissions repository.CommissionRepository
	logger      *logrus.Logger
}

func NewAgentService(agents repository.AgentRepository, commissions repository.CommissionRepository, logger *logrus.Logger) *AgentService {
	return &AgentService{agents: agents, commissions: commissions, logger: logger}
}

func (s *AgentService) List(ctx context.Context) ([]domain.Agent, error) {
	return s.agents.List(ctx)
}

func (s *AgentService) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	return s.agents.GetByID(ctx, id)
}

func (s *AgentService) CommissionStats(ctx context.Context, agentID int64, from, to time.Time) (*domain.CommissionStats, error) {
	if _, err := s.agents.GetByID(ctx, agentID); err != nil {
		return nil, err
	}
	return s.commissions.StatsForAgent(ctx, agentID, from, to)
}

func (s *AgentService) UpdateCommissionRate(ctx context.Context, agentID int64, rate float64) (*domain.Agent, error) {
	if rate < 0 || rate > 100 {
		v := domain.NewValidationError()
		v.Add("commission_rate", "commission rate must be between 0 and 100")
		return nil, v
	}
	agent, err := s.agents.UpdateCommissionRate(ctx, agentID, rate)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"agent_id": agentID, "rate": rate}).Info("commission rate updated")
	return agent, nil
}

var _ AgentUseCase = (*AgentService)(nil)
