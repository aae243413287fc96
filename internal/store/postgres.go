package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
)

//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateStudy(ctx context.Context, study *Study) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO frontier_studies (name, directions)
		VALUES ($1, $2)
		RETURNING study_id, created_at`,
		study.Name, pareto.DirectionStrings(study.Directions),
	).Scan(&study.ID, &study.CreatedAt)
}

func (s *PostgresStore) GetStudy(ctx context.Context, id uuid.UUID) (*Study, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT study_id, name, directions, created_at
		FROM frontier_studies WHERE study_id = $1`, id)
	study, err := scanStudy(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return study, err
}

func (s *PostgresStore) ListStudies(ctx context.Context, filter StudyFilter) ([]*Study, error) {
	query := `SELECT study_id, name, directions, created_at FROM frontier_studies WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Name != "" {
		n++
		query += fmt.Sprintf(" AND name = $%d", n)
		args = append(args, filter.Name)
	}

	query += " ORDER BY created_at ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var studies []*Study
	for rows.Next() {
		study, err := scanStudy(rows)
		if err != nil {
			return nil, err
		}
		studies = append(studies, study)
	}
	return studies, rows.Err()
}

func (s *PostgresStore) DeleteStudy(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM frontier_studies WHERE study_id = $1`, id)
	return err
}

const trialColumns = `trial_id, study_id, number, state, "values", params, user_attrs, error,
	created_at, completed_at, updated_at`

func (s *PostgresStore) CreateTrial(ctx context.Context, trial *Trial) error {
	paramsJSON, _ := json.Marshal(trial.Params)
	attrsJSON, _ := json.Marshal(trial.UserAttrs)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize number assignment per study.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, trial.StudyID.String()); err != nil {
		return fmt.Errorf("lock study: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO frontier_trials (study_id, number, state, "values", params, user_attrs, error, completed_at)
		SELECT $1, COALESCE(MAX(number) + 1, 0), $2, $3, $4, $5, $6, $7
		FROM frontier_trials WHERE study_id = $1
		RETURNING trial_id, number, created_at, updated_at`,
		trial.StudyID, trial.State, trial.Values, paramsJSON, attrsJSON, trial.Error, trial.CompletedAt,
	).Scan(&trial.ID, &trial.Number, &trial.CreatedAt, &trial.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert trial: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetTrial(ctx context.Context, studyID uuid.UUID, number int) (*Trial, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+trialColumns+`
		FROM frontier_trials WHERE study_id = $1 AND number = $2`, studyID, number)
	t, err := scanTrial(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (s *PostgresStore) TransitionTrial(ctx context.Context, trial *Trial, from TrialState) error {
	paramsJSON, _ := json.Marshal(trial.Params)
	attrsJSON, _ := json.Marshal(trial.UserAttrs)

	err := s.pool.QueryRow(ctx, `
		UPDATE frontier_trials SET
			state = $2, "values" = $3, params = $4, user_attrs = $5, error = $6,
			completed_at = $7, updated_at = now()
		WHERE trial_id = $1 AND state = $8
		RETURNING updated_at`,
		trial.ID, trial.State, trial.Values, paramsJSON, attrsJSON, trial.Error, trial.CompletedAt, from,
	).Scan(&trial.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: trial %d is no longer %s", ErrStateChanged, trial.Number, from)
	}
	return err
}

func (s *PostgresStore) ListTrials(ctx context.Context, filter TrialFilter) ([]*Trial, error) {
	query := `SELECT ` + trialColumns + ` FROM frontier_trials WHERE study_id = $1`
	args := []interface{}{filter.StudyID}

	if filter.State != nil {
		query += " AND state = $2"
		args = append(args, string(*filter.State))
	}
	query += " ORDER BY number ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrials(rows)
}

func (s *PostgresStore) GetRunningTrials(ctx context.Context) ([]*Trial, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+trialColumns+`
		FROM frontier_trials WHERE state = 'running'
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrials(rows)
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM frontier_studies),
			COALESCE(SUM(CASE WHEN state = 'running' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'complete' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'pruned' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'fail' THEN 1 ELSE 0 END), 0)
		FROM frontier_trials`,
	).Scan(&stats.TotalStudies, &stats.TotalRunning, &stats.TotalCompleted, &stats.TotalPruned, &stats.TotalFailed)
	return stats, err
}

func scanStudy(row pgx.Row) (*Study, error) {
	study := &Study{}
	var directions []string
	if err := row.Scan(&study.ID, &study.Name, &directions, &study.CreatedAt); err != nil {
		return nil, err
	}
	ds, err := pareto.ParseDirections(directions)
	if err != nil {
		return nil, fmt.Errorf("study %s: %w", study.ID, err)
	}
	study.Directions = ds
	return study, nil
}

func scanTrial(row pgx.Row) (*Trial, error) {
	t := &Trial{}
	var paramsJSON, attrsJSON []byte
	if err := row.Scan(
		&t.ID, &t.StudyID, &t.Number, &t.State, &t.Values, &paramsJSON, &attrsJSON, &t.Error,
		&t.CreatedAt, &t.CompletedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if paramsJSON != nil {
		_ = json.Unmarshal(paramsJSON, &t.Params)
	}
	if attrsJSON != nil {
		_ = json.Unmarshal(attrsJSON, &t.UserAttrs)
	}
	return t, nil
}

func scanTrials(rows pgx.Rows) ([]*Trial, error) {
	var trials []*Trial
	for rows.Next() {
		t, err := scanTrial(rows)
		if err != nil {
			return nil, err
		}
		trials = append(trials, t)
	}
	return trials, rows.Err()
}
