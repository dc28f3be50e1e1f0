package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Simplici0/estimator/internal/pricing"
)

// createdAtLayout keeps stored timestamps fixed-width so they sort as text.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// likeEscaper makes user search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// IntakeRequest is a prospective client's submission with the estimate shown
// to them at the time.
type IntakeRequest struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"createdAt"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Company      string            `json:"company,omitempty"`
	Message      string            `json:"message,omitempty"`
	DiscountCode string            `json:"discountCode,omitempty"`
	Inputs       pricing.Inputs    `json:"inputs"`
	Breakdown    pricing.Breakdown `json:"breakdown"`
}

// IntakeSummary is a list row.
type IntakeSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	Total     float64   `json:"total"`
}

// CreateIntake stores a submission and assigns its ID and timestamp.
func (s *Store) CreateIntake(ctx context.Context, req IntakeRequest) (IntakeRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Company = strings.TrimSpace(req.Company)
	req.Message = strings.TrimSpace(req.Message)
	req.DiscountCode = pricing.NormalizeCode(req.DiscountCode)

	if req.Name == "" {
		return IntakeRequest{}, invalidf("name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return IntakeRequest{}, invalidf("email is invalid")
	}

	now := s.clock().UTC()
	req.CreatedAt = now.Truncate(time.Millisecond)
	req.ID = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()

	inputs, err := json.Marshal(req.Inputs)
	if err != nil {
		return IntakeRequest{}, fmt.Errorf("encode intake inputs: %w", err)
	}
	breakdown, err := json.Marshal(req.Breakdown)
	if err != nil {
		return IntakeRequest{}, fmt.Errorf("encode intake breakdown: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO intake_requests (
			id, created_at, contact_name, contact_email, company, message, discount_code, inputs_json, breakdown_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.CreatedAt.Format(createdAtLayout), req.Name, req.Email, req.Company, req.Message, req.DiscountCode, string(inputs), string(breakdown))
	if err != nil {
		return IntakeRequest{}, mapWriteError(err, "create intake request")
	}
	return req, nil
}

// GetIntake reads the stored snapshot; nothing is recalculated.
func (s *Store) GetIntake(ctx context.Context, id string) (IntakeRequest, error) {
	var (
		req       IntakeRequest
		createdAt string
		inputs    string
		breakdown string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, contact_name, contact_email, company, message, discount_code, inputs_json, breakdown_json
		FROM intake_requests
		WHERE id = ?
	`, id).Scan(&req.ID, &createdAt, &req.Name, &req.Email, &req.Company, &req.Message, &req.DiscountCode, &inputs, &breakdown)
	if errors.Is(err, sql.ErrNoRows) {
		return IntakeRequest{}, fmt.Errorf("intake request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return IntakeRequest{}, fmt.Errorf("query intake request: %w", err)
	}

	if req.CreatedAt, err = time.Parse(createdAtLayout, createdAt); err != nil {
		return IntakeRequest{}, fmt.Errorf("parse intake created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(inputs), &req.Inputs); err != nil {
		return IntakeRequest{}, fmt.Errorf("decode intake inputs: %w", err)
	}
	if err := json.Unmarshal([]byte(breakdown), &req.Breakdown); err != nil {
		return IntakeRequest{}, fmt.Errorf("decode intake breakdown: %w", err)
	}
	return req, nil
}

// ListIntakes returns submissions newest first, optionally filtered by a
// substring of name, email, company or message.
func (s *Store) ListIntakes(ctx context.Context, query string) ([]IntakeSummary, error) {
	query = strings.TrimSpace(query)
	search := "%" + likeEscaper.Replace(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, contact_name, contact_email, company, breakdown_json
		FROM intake_requests
		WHERE (
			? = ''
			OR contact_name LIKE ? ESCAPE '\'
			OR contact_email LIKE ? ESCAPE '\'
			OR company LIKE ? ESCAPE '\'
			OR message LIKE ? ESCAPE '\'
		)
		ORDER BY created_at DESC, id DESC
	`, query, search, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query intake requests: %w", err)
	}
	defer rows.Close()

	out := make([]IntakeSummary, 0)
	for rows.Next() {
		var (
			item      IntakeSummary
			createdAt string
			breakdown string
		)
		if err := rows.Scan(&item.ID, &createdAt, &item.Name, &item.Email, &item.Company, &breakdown); err != nil {
			return nil, fmt.Errorf("scan intake request: %w", err)
		}
		item.CreatedAt, _ = time.Parse(createdAtLayout, createdAt)
		item.Total = extractTotal(breakdown)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intake requests: %w", err)
	}
	return out, nil
}

// extractTotal reads the total from a breakdown snapshot, 0 when unreadable.
func extractTotal(breakdownJSON string) float64 {
	var values struct {
		Total *float64 `json:"total"`
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &values); err != nil || values.Total == nil {
		return 0
	}
	return *values.Total
}
