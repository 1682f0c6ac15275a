package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// CardColumns is the column list shared by the SQL card stores, in the
// order ScanCard and CardArgs use.
const CardColumns = `id, user_id, word, meaning, state, due, familiar, interval_days, ease_factor,
	consecutive_correct, review_count, last_reviewed_at, enrichment, created_at, updated_at`

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// ScanCard reads one row selected with CardColumns.
func ScanCard(row RowScanner) (*domain.Card, error) {
	var (
		c          domain.Card
		state      string
		lastReview sql.NullTime
		enrichment []byte
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Word,
		&c.Meaning,
		&state,
		&c.Due,
		&c.Familiar,
		&c.Interval,
		&c.EaseFactor,
		&c.ConsecutiveCorrect,
		&c.ReviewCount,
		&lastReview,
		&enrichment,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.State = domain.LifecycleState(state)
	if lastReview.Valid {
		c.LastReviewedAt = lastReview.Time
	}
	if len(enrichment) > 0 {
		if err := json.Unmarshal(enrichment, &c.Enrichment); err != nil {
			return nil, fmt.Errorf("%w: card %s enrichment: %v", ErrInvalidEntity, c.ID, err)
		}
	}
	return &c, nil
}

// CardArgs returns the values for CardColumns.
func CardArgs(c *domain.Card) ([]any, error) {
	enrichment, err := json.Marshal(c.Enrichment)
	if err != nil {
		return nil, err
	}
	var lastReview sql.NullTime
	if !c.LastReviewedAt.IsZero() {
		lastReview = sql.NullTime{Time: c.LastReviewedAt, Valid: true}
	}
	return []any{
		c.ID,
		c.UserID,
		c.Word,
		c.Meaning,
		string(c.State),
		c.Due,
		c.Familiar,
		c.Interval,
		c.EaseFactor,
		c.ConsecutiveCorrect,
		c.ReviewCount,
		lastReview,
		string(enrichment),
		c.CreatedAt,
		c.UpdatedAt,
	}, nil
}

// EncodeCardIDs serializes group membership for storage.
func EncodeCardIDs(ids []uuid.UUID) (string, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	b, err := json.Marshal(ids)
	return string(b), err
}

// DecodeCardIDs parses membership written by EncodeCardIDs.
func DecodeCardIDs(raw []byte) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(raw) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("%w: card ids: %v", ErrInvalidEntity, err)
	}
	return ids, nil
}

// Placeholders returns n bind placeholders starting at start, rendered by
// format (for example "$%d" or "?").
func Placeholders(format string, start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		if strings.Contains(format, "%d") {
			parts[i] = fmt.Sprintf(format, start+i)
		} else {
			parts[i] = format
		}
	}
	return strings.Join(parts, ", ")
}
