package tickets

import (
	"context"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/bdticketpro/backoffice/internal/repository"
	"github.com/sirupsen/logrus"
)

type TicketUseCase interface {
	List(ctx context.Context, filter domain.TicketFilter, viewer domain.Role) ([]domain.Ticket, error)
	GetByID(ctx context.Context, id int64, viewer domain.Role) (*domain.Ticket, error)
}

// Cache holds the per-country inventory listings.
type Cache interface {
	GetTickets(ctx context.Context, country string) ([]domain.Ticket, error)
	SetTickets(ctx context.Context, country string, tickets []domain.Ticket) error
}

type TicketService struct {
	repo   repository.TicketRepository
	cache  Cache
	logger *logrus.Logger
}

func NewTicketService(repo repository.TicketRepository, cache Cache, logger *logrus.Logger) *TicketService {
	return &TicketService{repo: repo, cache: cache, logger: logger}
}

func (s *TicketService) List(ctx context.Context, filter domain.TicketFilter, viewer domain.Role) ([]domain.Ticket, error) {
	cacheable := filter.Status == "" && filter.Airline == ""

	if s.cache != nil && cacheable {
		if cached, err := s.cache.GetTickets(ctx, filter.Country); err == nil && cached != nil {
			return redact(cached, viewer), nil
		}
	}

	tickets, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && cacheable {
		if err := s.cache.SetTickets(ctx, filter.Country, tickets); err != nil {
			s.logger.WithError(err).Warn("ticket cache write failed")
		}
	}
	return redact(tickets, viewer), nil
}

func (s *TicketService) GetByID(ctx context.Context, id int64, viewer domain.Role) (*domain.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t := redactOne(*ticket, viewer)
	return &t, nil
}

// redact strips cost-side fields for roles without elevated access. The
// decision lives here, at the query boundary, not in handlers.
func redact(tickets []domain.Ticket, viewer domain.Role) []domain.Ticket {
	if viewer.CanViewBuyingPrice() {
		return tickets
	}
	out := make([]domain.Ticket, len(tickets))
	for i, t := range tickets {
		out[i] = redactOne(t, viewer)
	}
	return out
}

func redactOne(t domain.Ticket, viewer domain.Role) domain.Ticket {
	if !viewer.CanViewBuyingPrice() {
		t.BuyingPrice = 0
	}
	return t
}

var _ TicketUseCase = (*TicketService)(nil)
