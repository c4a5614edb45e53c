package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for goose
	"github.com/pressly/goose/v3"

	"github.com/okian/huddle/internal/domain/assignment"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/team"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	migrationTimeout  = time.Minute
	pgFKViolation     = "23503"
	pgUniqueViolation = "23505"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn, applies pending migrations, and returns
// the store.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := migrate(ctx, dsn); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// migrate applies the embedded goose migrations.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	if err := goose.UpContext(runCtx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Save stores a team. The unique constraint on name maps to ErrTeamNameTaken.
func (s *PostgresStore) Save(ctx context.Context, t team.Team) error {
	const query = `INSERT INTO teams (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	_, err := s.pool.Exec(ctx, query, string(t.ID), string(t.Name))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrTeamNameTaken
		}
		return err
	}
	return nil
}

// FindByID returns a team by id.
func (s *PostgresStore) FindByID(ctx context.Context, id team.ID) (team.Team, error) {
	const query = `SELECT id, name FROM teams WHERE id = $1`
	row := s.pool.QueryRow(ctx, query, string(id))
	var t team.Team
	if err := row.Scan(&t.ID, &t.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return team.Team{}, ErrTeamNotFound
		}
		return team.Team{}, err
	}
	return t, nil
}

// FindAll returns every team ordered by name.
func (s *PostgresStore) FindAll(ctx context.Context) ([]team.Team, error) {
	const query = `SELECT id, name FROM teams ORDER BY name`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]team.Team, 0)
	for rows.Next() {
		var t team.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// AllTeamMemberCounts returns every team with its active member count.
func (s *PostgresStore) AllTeamMemberCounts(ctx context.Context) ([]assignment.TeamWithMemberCount, error) {
	const query = `SELECT t.id, COUNT(p.id)
		FROM teams t
		LEFT JOIN participants p ON p.team_id = t.id AND p.status = 'ACTIVE'
		GROUP BY t.id
		ORDER BY t.id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]assignment.TeamWithMemberCount, 0)
	for rows.Next() {
		var c assignment.TeamWithMemberCount
		if err := rows.Scan(&c.TeamID, &c.MemberCount); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TeamMemberCount returns the active member count of one team.
func (s *PostgresStore) TeamMemberCount(ctx context.Context, teamID team.ID) (int, error) {
	const query = `SELECT COUNT(p.id)
		FROM teams t
		LEFT JOIN participants p ON p.team_id = t.id AND p.status = 'ACTIVE'
		WHERE t.id = $1
		GROUP BY t.id`
	row := s.pool.QueryRow(ctx, query, string(teamID))
	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrTeamNotFound
		}
		return 0, err
	}
	return count, nil
}

// TeamMembers returns the active members of one team ordered by name.
func (s *PostgresStore) TeamMembers(ctx context.Context, teamID team.ID) ([]team.MemberInfo, error) {
	const query = `SELECT id, name FROM participants
		WHERE team_id = $1 AND status = 'ACTIVE'
		ORDER BY name`
	rows, err := s.pool.Query(ctx, query, string(teamID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]team.MemberInfo, 0)
	for rows.Next() {
		var m team.MemberInfo
		if err := rows.Scan(&m.ParticipantID, &m.Name); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AssignToTeam points a participant at a team and marks them active.
func (s *PostgresStore) AssignToTeam(ctx context.Context, participantID team.ParticipantID, teamID team.ID) error {
	const query = `UPDATE participants
		SET team_id = $2, status = 'ACTIVE', updated_at = NOW()
		WHERE id = $1`
	cmdTag, err := s.pool.Exec(ctx, query, string(participantID), string(teamID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgFKViolation {
			return ErrTeamNotFound
		}
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// RecordReactivation upserts a participant as active and unassigned.
func (s *PostgresStore) RecordReactivation(ctx context.Context, participantID, name string) error {
	const query = `INSERT INTO participants (id, name, status, team_id)
		VALUES ($1, $2, 'ACTIVE', NULL)
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE participants.name END,
			status = 'ACTIVE',
			team_id = NULL,
			updated_at = NOW()`
	_, err := s.pool.Exec(ctx, query, participantID, name)
	return err
}

// RecordDeparture marks a participant suspended or withdrawn and detaches them.
func (s *PostgresStore) RecordDeparture(ctx context.Context, participantID string, status model.ParticipantStatus) error {
	const query = `INSERT INTO participants (id, status, team_id)
		VALUES ($1, $2, NULL)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			team_id = NULL,
			updated_at = NOW()`
	_, err := s.pool.Exec(ctx, query, participantID, string(status))
	return err
}

// TeamDetails returns all teams with their active memberships ordered by name.
func (s *PostgresStore) TeamDetails(ctx context.Context) ([]TeamDetail, error) {
	const query = `SELECT t.id, t.name, p.name
		FROM teams t
		LEFT JOIN participants p ON p.team_id = t.id AND p.status = 'ACTIVE'
		ORDER BY t.name, p.name`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]TeamDetail, 0)
	index := make(map[team.ID]int)
	for rows.Next() {
		var (
			teamID     team.ID
			teamName   team.Name
			memberName sql.NullString
		)
		if err := rows.Scan(&teamID, &teamName, &memberName); err != nil {
			return nil, err
		}
		i, ok := index[teamID]
		if !ok {
			i = len(details)
			index[teamID] = i
			details = append(details, TeamDetail{ID: teamID, Name: teamName, Members: []string{}})
		}
		if memberName.Valid {
			details[i].Members = append(details[i].Members, memberName.String)
			details[i].MemberCount++
		}
	}
	return details, rows.Err()
}

// Overview returns aggregate counts.
func (s *PostgresStore) Overview(ctx context.Context) (Overview, error) {
	const query = `SELECT
		(SELECT COUNT(1) FROM teams),
		COUNT(1) FILTER (WHERE status = 'ACTIVE'),
		COUNT(1) FILTER (WHERE status = 'SUSPENDED'),
		COUNT(1) FILTER (WHERE status = 'WITHDRAWN')
		FROM participants`
	row := s.pool.QueryRow(ctx, query)
	var o Overview
	if err := row.Scan(&o.Teams, &o.ActiveParticipants, &o.Suspended, &o.Withdrawn); err != nil {
		return Overview{}, err
	}
	return o, nil
}
