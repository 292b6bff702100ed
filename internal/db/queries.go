package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries is the hand-written query layer over the connection pool.
type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// --- Users ---

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	var u User
	err := q.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password, display_name, created_at`,
		p.ID, p.Email, p.Password, p.DisplayName,
	).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := q.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

// --- Boards ---

type Board struct {
	ID        string
	Name      string
	OwnerID   string
	JoinCode  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateBoardParams struct {
	ID       string
	Name     string
	OwnerID  string
	JoinCode string
}

func (q *Queries) CreateBoard(ctx context.Context, p CreateBoardParams) (Board, error) {
	var b Board
	err := q.pool.QueryRow(ctx, `
		INSERT INTO boards (id, name, owner_id, join_code)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, owner_id, join_code, created_at, updated_at`,
		p.ID, p.Name, p.OwnerID, p.JoinCode,
	).Scan(&b.ID, &b.Name, &b.OwnerID, &b.JoinCode, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (q *Queries) GetBoard(ctx context.Context, id string) (Board, error) {
	var b Board
	err := q.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, join_code, created_at, updated_at
		FROM boards WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &b.OwnerID, &b.JoinCode, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (q *Queries) GetBoardByJoinCode(ctx context.Context, joinCode string) (Board, error) {
	var b Board
	err := q.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, join_code, created_at, updated_at
		FROM boards WHERE join_code = $1`,
		joinCode,
	).Scan(&b.ID, &b.Name, &b.OwnerID, &b.JoinCode, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (q *Queries) ListBoardsForOwner(ctx context.Context, ownerID string) ([]Board, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, name, owner_id, join_code, created_at, updated_at
		FROM boards WHERE owner_id = $1
		ORDER BY updated_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.ID, &b.Name, &b.OwnerID, &b.JoinCode, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (q *Queries) DeleteBoard(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	return err
}

// --- Participants ---

type Participant struct {
	BoardID     string
	UserID      string
	Role        string // "teacher" or "student"
	DisplayName string
	JoinedAt    time.Time
}

type AddParticipantParams struct {
	BoardID     string
	UserID      string
	Role        string
	DisplayName string
}

func (q *Queries) AddParticipant(ctx context.Context, p AddParticipantParams) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO participants (board_id, user_id, role, display_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (board_id, user_id) DO UPDATE SET display_name = $4`,
		p.BoardID, p.UserID, p.Role, p.DisplayName,
	)
	return err
}

type GetParticipantParams struct {
	BoardID string
	UserID  string
}

func (q *Queries) GetParticipant(ctx context.Context, p GetParticipantParams) (Participant, error) {
	var out Participant
	err := q.pool.QueryRow(ctx, `
		SELECT board_id, user_id, role, display_name, joined_at
		FROM participants WHERE board_id = $1 AND user_id = $2`,
		p.BoardID, p.UserID,
	).Scan(&out.BoardID, &out.UserID, &out.Role, &out.DisplayName, &out.JoinedAt)
	return out, err
}

func (q *Queries) ListParticipants(ctx context.Context, boardID string) ([]Participant, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT board_id, user_id, role, display_name, joined_at
		FROM participants WHERE board_id = $1
		ORDER BY joined_at`,
		boardID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.BoardID, &p.UserID, &p.Role, &p.DisplayName, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type RemoveParticipantParams struct {
	BoardID string
	UserID  string
}

func (q *Queries) RemoveParticipant(ctx context.Context, p RemoveParticipantParams) error {
	_, err := q.pool.Exec(ctx, `
		DELETE FROM participants WHERE board_id = $1 AND user_id = $2`,
		p.BoardID, p.UserID,
	)
	return err
}

// --- Snapshots ---

type Snapshot struct {
	ID        string
	BoardID   string
	Version   int32
	Document  json.RawMessage
	CreatedAt time.Time
}

type CreateSnapshotParams struct {
	ID       string
	BoardID  string
	Version  int32
	Document json.RawMessage
}

func (q *Queries) CreateSnapshot(ctx context.Context, p CreateSnapshotParams) (Snapshot, error) {
	var s Snapshot
	err := q.pool.QueryRow(ctx, `
		INSERT INTO snapshots (id, board_id, version, document)
		VALUES ($1, $2, $3, $4)
		RETURNING id, board_id, version, document, created_at`,
		p.ID, p.BoardID, p.Version, p.Document,
	).Scan(&s.ID, &s.BoardID, &s.Version, &s.Document, &s.CreatedAt)
	return s, err
}

func (q *Queries) GetLatestSnapshot(ctx context.Context, boardID string) (Snapshot, error) {
	var s Snapshot
	err := q.pool.QueryRow(ctx, `
		SELECT id, board_id, version, document, created_at
		FROM snapshots WHERE board_id = $1
		ORDER BY version DESC LIMIT 1`,
		boardID,
	).Scan(&s.ID, &s.BoardID, &s.Version, &s.Document, &s.CreatedAt)
	return s, err
}

// --- Templates ---

type Template struct {
	ID        string
	Name      string
	OwnerID   string
	Document  json.RawMessage
	CreatedAt time.Time
}

type CreateTemplateParams struct {
	ID       string
	Name     string
	OwnerID  string
	Document json.RawMessage
}

func (q *Queries) CreateTemplate(ctx context.Context, p CreateTemplateParams) (Template, error) {
	var t Template
	err := q.pool.QueryRow(ctx, `
		INSERT INTO templates (id, name, owner_id, document)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, owner_id, document, created_at`,
		p.ID, p.Name, p.OwnerID, p.Document,
	).Scan(&t.ID, &t.Name, &t.OwnerID, &t.Document, &t.CreatedAt)
	return t, err
}

func (q *Queries) GetTemplate(ctx context.Context, id string) (Template, error) {
	var t Template
	err := q.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, document, created_at
		FROM templates WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.OwnerID, &t.Document, &t.CreatedAt)
	return t, err
}

func (q *Queries) ListTemplatesForOwner(ctx context.Context, ownerID string) ([]Template, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, name, owner_id, document, created_at
		FROM templates WHERE owner_id = $1
		ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID, &t.Document, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
