package trade

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
)

// Store is the inventory store the trade core reads from and writes to.
// UpdateUser replaces a whole field; the caller computes the new value.
type Store interface {
	GetUser(ctx context.Context, id snowflake.ID) (*models.User, error)
	UpdateUser(ctx context.Context, id snowflake.ID, field models.UserField, value any) error
}

// Committer is implemented by stores that can persist several user records
// in one atomic step. Each record's Version must still match the stored one,
// otherwise models.ErrVersionConflict is returned and nothing is written.
type Committer interface {
	CommitUsers(ctx context.Context, users ...*models.User) error
}
