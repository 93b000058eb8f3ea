package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (r *orgAgentRepository) IsOrgAgent(ctx context.Context, userID, orgID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM org_agents
			WHERE user_id = $1 AND org_id = $2 AND active = true
		)
	`
	var isAgent bool
	err := sqlx.GetContext(ctx, r.db, &isAgent, query, userID, orgID)
	if err != nil {
		return false, fmt.Errorf("failed to check org membership: %w", err)
	}
	return isAgent, nil
}
