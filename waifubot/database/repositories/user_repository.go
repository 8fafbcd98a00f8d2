package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
	"github.com/ellavondegurechaff/waifubot/waifubot/database/models"
	"github.com/uptrace/bun"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is the Postgres inventory store behind trades and gifts.
type UserRepository interface {
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	GetUser(ctx context.Context, id snowflake.ID) (*models.User, error)
	UpdateUser(ctx context.Context, id snowflake.ID, field models.UserField, value any) error
	CommitUsers(ctx context.Context, users ...*models.User) error
}

type userRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("discord_id = ?", discordID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, discordID)
		}
		slog.Error("Database error when getting user",
			slog.String("type", "db"),
			slog.String("operation", "GetByDiscordID"),
			slog.String("discord_id", discordID),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUser returns the user's inventory, creating an empty record on first use.
func (r *userRepository) GetUser(ctx context.Context, id snowflake.ID) (*models.User, error) {
	user, err := r.GetByDiscordID(ctx, id.String())
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	now := time.Now()
	fresh := &models.User{
		DiscordID: id.String(),
		Cards:     []models.Card{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.db.NewInsert().
		Model(fresh).
		On("CONFLICT (discord_id) DO NOTHING").
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("Created user record",
		slog.String("type", "db"),
		slog.String("discord_id", id.String()))

	return r.GetByDiscordID(ctx, id.String())
}

// UpdateUser replaces one whole field of a user record.
func (r *userRepository) UpdateUser(ctx context.Context, id snowflake.ID, field models.UserField, value any) error {
	column, arg, err := fieldValue(field, value)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set(column, arg).
		Set("version = version + 1").
		Set("updated_at = ?", time.Now()).
		Where("discord_id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return nil
}

// CommitUsers writes all records in one transaction. Every record must still
// carry the version it was read with.
func (r *userRepository) CommitUsers(ctx context.Context, users ...*models.User) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, u := range users {
		q, err := versionedUpdate(&tx, u, now)
		if err != nil {
			return err
		}
		res, err := q.Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update user %s: %w", u.DiscordID, err)
		}
		if err := checkVersioned(res, u.DiscordID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	for _, u := range users {
		u.Version++
		u.UpdatedAt = now
	}
	return nil
}

// versionedUpdate replaces the inventory of u, matching only the row
// version u was read with.
func versionedUpdate(db bun.IDB, u *models.User, now time.Time) (*bun.UpdateQuery, error) {
	cards, err := marshalCards(u.Cards)
	if err != nil {
		return nil, err
	}
	return db.NewUpdate().
		Model((*models.User)(nil)).
		Set("cards = ?::jsonb", cards).
		Set("gold = ?", u.Gold).
		Set("shards = ?", u.Shards).
		Set("version = version + 1").
		Set("updated_at = ?", now).
		Where("discord_id = ?", u.DiscordID).
		Where("version = ?", u.Version), nil
}

// checkVersioned maps an update that matched no row to ErrVersionConflict.
func checkVersioned(res sql.Result, discordID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrVersionConflict, discordID)
	}
	return nil
}

// fieldValue validates a whole-field replacement and returns its SET clause.
func fieldValue(field models.UserField, value any) (string, any, error) {
	if !field.Valid() {
		return "", nil, fmt.Errorf("unknown user field %q", field)
	}
	if field == models.FieldCards {
		cards, ok := value.([]models.Card)
		if !ok {
			return "", nil, fmt.Errorf("cards must be []models.Card, got %T", value)
		}
		b, err := marshalCards(cards)
		if err != nil {
			return "", nil, err
		}
		return "cards = ?::jsonb", b, nil
	}

	var n int64
	switch v := value.(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	default:
		return "", nil, fmt.Errorf("%s must be an integer, got %T", field, value)
	}
	if n < 0 {
		return "", nil, fmt.Errorf("%s cannot be negative: %d", field, n)
	}
	return string(field) + " = ?", n, nil
}

func marshalCards(cards []models.Card) (string, error) {
	if cards == nil {
		cards = []models.Card{}
	}
	b, err := json.Marshal(cards)
	if err != nil {
		return "", fmt.Errorf("failed to encode cards: %w", err)
	}
	return string(b), nil
}
