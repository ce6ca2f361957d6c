package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"giveaway-bot/internal/common/apperrors"
	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/repository"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) repository.GiveawayRepository {
	return &sqliteRepository{db: db}
}

// Deadlines are persisted as unix seconds; wall-clock deltas are never
// stored.
func toUnix(t time.Time) int64 {
	return t.UTC().Unix()
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func (r *sqliteRepository) Create(ctx context.Context, g *models.Giveaway) error {
	if g.State == "" {
		g.State = models.StateActive
	}

	query := `
		INSERT INTO giveaways (id, title, chat_id, channel_message_id, end_time, state)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, g.ID, g.Title, g.ChatID, g.ChannelMessageID, toUnix(g.EndTime), g.State)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return apperrors.Newf(apperrors.CodeDuplicateID, "giveaway %d already exists", g.ID)
		}
		return apperrors.Wrap(err, apperrors.CodeStore, "create giveaway")
	}
	return nil
}

func (r *sqliteRepository) GetByID(ctx context.Context, id int64) (*models.Giveaway, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *sqliteRepository) GetByChannelMessageID(ctx context.Context, channelMessageID int64) (*models.Giveaway, error) {
	return r.getWhere(ctx, "channel_message_id = ?", channelMessageID)
}

func (r *sqliteRepository) getWhere(ctx context.Context, cond string, arg int64) (*models.Giveaway, error) {
	query := `
		SELECT id, title, chat_id, channel_message_id, end_time, state
		FROM giveaways
		WHERE ` + cond
	g := &models.Giveaway{}
	var endTime int64
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&g.ID, &g.Title, &g.ChatID, &g.ChannelMessageID, &endTime, &g.State,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "giveaway %d not found", arg)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeStore, "get giveaway")
	}
	g.EndTime = fromUnix(endTime)

	g.Participants, err = r.ListParticipants(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *sqliteRepository) ListActive(ctx context.Context) ([]*models.Giveaway, error) {
	query := `
		SELECT id, title, chat_id, channel_message_id, end_time, state
		FROM giveaways
		WHERE state = ?
		ORDER BY end_time
	`
	rows, err := r.db.QueryContext(ctx, query, models.StateActive)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStore, "list active giveaways")
	}
	defer rows.Close()

	var giveaways []*models.Giveaway
	for rows.Next() {
		g := &models.Giveaway{}
		var endTime int64
		if err := rows.Scan(&g.ID, &g.Title, &g.ChatID, &g.ChannelMessageID, &endTime, &g.State); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStore, "scan giveaway")
		}
		g.EndTime = fromUnix(endTime)
		giveaways = append(giveaways, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStore, "list active giveaways")
	}
	return giveaways, nil
}

func (r *sqliteRepository) TryTransition(ctx context.Context, id int64, from, to models.GiveawayState) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE giveaways SET state = ? WHERE id = ? AND state = ?`,
		to, id, from,
	)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeStore, "transition giveaway state")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeStore, "transition giveaway state")
	}
	return affected == 1, nil
}

func (r *sqliteRepository) AddParticipant(ctx context.Context, giveawayID int64, p models.Participant) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeStore, "begin transaction")
	}
	defer tx.Rollback()

	var state models.GiveawayState
	err = tx.QueryRowContext(ctx, `SELECT state FROM giveaways WHERE id = ?`, giveawayID).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperrors.Newf(apperrors.CodeNotFound, "giveaway %d not found", giveawayID)
		}
		return false, apperrors.Wrap(err, apperrors.CodeStore, "check giveaway state")
	}
	if state != models.StateActive {
		return false, apperrors.Newf(apperrors.CodeGiveawayNotActive, "giveaway %d is not active", giveawayID)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO participants (giveaway_id, user_id, display_name, handle)
		VALUES (?, ?, ?, ?)`,
		giveawayID, p.UserID, p.DisplayName, p.Handle,
	)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeStore, "insert participant")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeStore, "insert participant")
	}

	if err := tx.Commit(); err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeStore, "commit transaction")
	}
	return affected == 1, nil
}

func (r *sqliteRepository) CountParticipants(ctx context.Context, giveawayID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE giveaway_id = ?`, giveawayID,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeStore, "count participants")
	}
	return count, nil
}

func (r *sqliteRepository) ListParticipants(ctx context.Context, giveawayID int64) ([]models.Participant, error) {
	query := `
		SELECT giveaway_id, user_id, display_name, handle
		FROM participants
		WHERE giveaway_id = ?
		ORDER BY rowid
	`
	rows, err := r.db.QueryContext(ctx, query, giveawayID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStore, "list participants")
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.GiveawayID, &p.UserID, &p.DisplayName, &p.Handle); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStore, "scan participant")
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStore, "list participants")
	}
	return participants, nil
}

func (r *sqliteRepository) GetParticipant(ctx context.Context, giveawayID, userID int64) (*models.Participant, error) {
	var p models.Participant
	err := r.db.QueryRowContext(ctx, `
		SELECT giveaway_id, user_id, display_name, handle
		FROM participants
		WHERE giveaway_id = ? AND user_id = ?`,
		giveawayID, userID,
	).Scan(&p.GiveawayID, &p.UserID, &p.DisplayName, &p.Handle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.CodeNotAParticipant, "user %d is not registered for giveaway %d", userID, giveawayID)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeStore, "get participant")
	}
	return &p, nil
}

func (r *sqliteRepository) ListRecipientIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM participants ORDER BY user_id`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStore, "list recipients")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStore, "scan recipient")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStore, "list recipients")
	}
	return ids, nil
}

// Retire deletes the giveaway and its roster in one transaction. The
// participant delete is explicit rather than relying on the FK cascade.
func (r *sqliteRepository) Retire(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStore, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE giveaway_id = ?`, id); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStore, "delete participants")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM giveaways WHERE id = ?`, id); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStore, "delete giveaway")
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStore, "commit transaction")
	}
	return nil
}
