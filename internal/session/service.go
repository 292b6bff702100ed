package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"

	"github.com/slateboard/slateboard/backend-go/internal/db"
	"github.com/slateboard/slateboard/backend-go/internal/document"
	"github.com/slateboard/slateboard/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("board not found")
	ErrForbidden = errors.New("not the board owner")
)

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// joinCodeAlphabet omits ambiguous characters (0/O, 1/I/L).
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const joinCodeLength = 6

type Service struct {
	queries *db.Queries
}

func NewService(queries *db.Queries) *Service {
	return &Service{queries: queries}
}

type BoardInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	JoinCode  string `json:"joinCode"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func boardInfo(b db.Board) BoardInfo {
	return BoardInfo{
		ID:        b.ID,
		Name:      b.Name,
		OwnerID:   b.OwnerID,
		JoinCode:  b.JoinCode,
		CreatedAt: b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: b.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateBoard makes a new board owned by a teacher, seeds version 1 with
// either an empty document or a template copy, and registers the owner as
// a participant.
func (s *Service) CreateBoard(ctx context.Context, ownerID, name, templateID string) (*BoardInfo, error) {
	boardID := typeid.NewBoardID()

	code, err := generateJoinCode()
	if err != nil {
		return nil, fmt.Errorf("generate join code: %w", err)
	}

	board, err := s.queries.CreateBoard(ctx, db.CreateBoardParams{
		ID:       boardID,
		Name:     name,
		OwnerID:  ownerID,
		JoinCode: code,
	})
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}

	doc, err := s.seedDocument(ctx, boardID, name, ownerID, templateID)
	if err != nil {
		return nil, err
	}

	_, err = s.queries.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		BoardID:  boardID,
		Version:  1,
		Document: doc,
	})
	if err != nil {
		return nil, fmt.Errorf("seed snapshot: %w", err)
	}

	err = s.queries.AddParticipant(ctx, db.AddParticipantParams{
		BoardID:     boardID,
		UserID:      ownerID,
		Role:        RoleTeacher,
		DisplayName: "",
	})
	if err != nil {
		return nil, fmt.Errorf("add owner participant: %w", err)
	}

	info := boardInfo(board)
	return &info, nil
}

func (s *Service) seedDocument(ctx context.Context, boardID, name, ownerID, templateID string) (json.RawMessage, error) {
	if templateID == "" {
		return json.Marshal(document.NewEmptyBoard(boardID, name))
	}

	tmpl, err := s.queries.GetTemplate(ctx, templateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("template %s not found", templateID)
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	if tmpl.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	var board document.Board
	if err := json.Unmarshal(tmpl.Document, &board); err != nil {
		return nil, fmt.Errorf("decode template document: %w", err)
	}
	board.ID = boardID
	board.Name = name
	return json.Marshal(&board)
}

func (s *Service) GetBoard(ctx context.Context, boardID string) (*BoardInfo, error) {
	board, err := s.queries.GetBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	info := boardInfo(board)
	return &info, nil
}

func (s *Service) ListBoards(ctx context.Context, ownerID string) ([]BoardInfo, error) {
	boards, err := s.queries.ListBoardsForOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	out := make([]BoardInfo, 0, len(boards))
	for _, b := range boards {
		out = append(out, boardInfo(b))
	}
	return out, nil
}

func (s *Service) DeleteBoard(ctx context.Context, boardID, userID string) error {
	board, err := s.queries.GetBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get board: %w", err)
	}
	if board.OwnerID != userID {
		return ErrForbidden
	}
	return s.queries.DeleteBoard(ctx, boardID)
}

// JoinByCode resolves a join code and registers the joining user as a
// student participant. Students joining by code do not need an account;
// their IDs are minted by the caller.
func (s *Service) JoinByCode(ctx context.Context, code, userID, displayName string) (*BoardInfo, error) {
	board, err := s.queries.GetBoardByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get board by code: %w", err)
	}

	role := RoleStudent
	if userID == board.OwnerID {
		role = RoleTeacher
	}

	err = s.queries.AddParticipant(ctx, db.AddParticipantParams{
		BoardID:     board.ID,
		UserID:      userID,
		Role:        role,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, fmt.Errorf("add participant: %w", err)
	}

	info := boardInfo(board)
	return &info, nil
}

type ParticipantInfo struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
}

func (s *Service) ListParticipants(ctx context.Context, boardID string) ([]ParticipantInfo, error) {
	parts, err := s.queries.ListParticipants(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	out := make([]ParticipantInfo, 0, len(parts))
	for _, p := range parts {
		out = append(out, ParticipantInfo{
			UserID:      p.UserID,
			Role:        p.Role,
			DisplayName: p.DisplayName,
		})
	}
	return out, nil
}

func (s *Service) RemoveParticipant(ctx context.Context, boardID, requesterID, targetID string) error {
	board, err := s.queries.GetBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get board: %w", err)
	}
	if board.OwnerID != requesterID {
		return ErrForbidden
	}
	if targetID == board.OwnerID {
		return errors.New("cannot remove the board owner")
	}
	return s.queries.RemoveParticipant(ctx, db.RemoveParticipantParams{
		BoardID: boardID,
		UserID:  targetID,
	})
}

// LatestDocument returns the most recent persisted board document and
// its version.
func (s *Service) LatestDocument(ctx context.Context, boardID string) (json.RawMessage, int32, error) {
	snap, err := s.queries.GetLatestSnapshot(ctx, boardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, snap.Version, nil
}

// SaveDocument writes a new snapshot version for a board.
func (s *Service) SaveDocument(ctx context.Context, boardID string, doc json.RawMessage) (int32, error) {
	version := int32(1)
	prev, err := s.queries.GetLatestSnapshot(ctx, boardID)
	if err == nil {
		version = prev.Version + 1
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("get snapshot: %w", err)
	}

	_, err = s.queries.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		BoardID:  boardID,
		Version:  version,
		Document: doc,
	})
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	return version, nil
}

type TemplateInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func (s *Service) CreateTemplate(ctx context.Context, ownerID, name string, doc json.RawMessage) (*TemplateInfo, error) {
	if !json.Valid(doc) {
		return nil, errors.New("template document is not valid JSON")
	}

	tmpl, err := s.queries.CreateTemplate(ctx, db.CreateTemplateParams{
		ID:       typeid.NewTemplateID(),
		Name:     name,
		OwnerID:  ownerID,
		Document: doc,
	})
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return &TemplateInfo{
		ID:        tmpl.ID,
		Name:      tmpl.Name,
		CreatedAt: tmpl.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

func (s *Service) ListTemplates(ctx context.Context, ownerID string) ([]TemplateInfo, error) {
	tmpls, err := s.queries.ListTemplatesForOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make([]TemplateInfo, 0, len(tmpls))
	for _, t := range tmpls {
		out = append(out, TemplateInfo{
			ID:        t.ID,
			Name:      t.Name,
			CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out, nil
}

func generateJoinCode() (string, error) {
	code := make([]byte, joinCodeLength)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
