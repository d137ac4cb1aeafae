package repository

import (
	"context"
	"errors"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AgentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
	UpdateCommissionRate(ctx context.Context, id int64, rate float64) (*domain.Agent, error)
}

type PGAgentRepository struct {
	db *pgxpool.Pool
}

func NewAgentRepository(db *pgxpool.Pool) AgentRepository {
	return &PGAgentRepository{db: db}
}

const agentColumns = `id, full_name, email, phone, role, commission_rate, is_active, created_at, updated_at`

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var a domain.Agent
	if err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Phone, &a.Role, &a.CommissionRate, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGAgentRepository) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	a, err := scanAgent(r.db.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *PGAgentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	rows, err := r.db.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := make([]domain.Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

func (r *PGAgentRepository) UpdateCommissionRate(ctx context.Context, id int64, rate float64) (*domain.Agent, error) {
	a, err := scanAgent(r.db.QueryRow(ctx, `UPDATE agents SET commission_rate=$1, updated_at=now() WHERE id=$2 RETURNING `+agentColumns, rate, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

var _ AgentRepository = (*PGAgentRepository)(nil)
