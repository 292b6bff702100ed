package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/slateboard/slateboard/backend-go/internal/asset"
	"github.com/slateboard/slateboard/backend-go/internal/auth"
	"github.com/slateboard/slateboard/backend-go/internal/collab"
	"github.com/slateboard/slateboard/backend-go/internal/config"
	"github.com/slateboard/slateboard/backend-go/internal/db"
	"github.com/slateboard/slateboard/backend-go/internal/document"
	mw "github.com/slateboard/slateboard/backend-go/internal/middleware"
	"github.com/slateboard/slateboard/backend-go/internal/session"
)

// playgroundBoardID is a board anyone can scribble on without an
// account. It lives only in memory.
const playgroundBoardID = "board_playground"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	queries := db.New(pool)
	logger := slog.Default()

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService, logger)

	sessionService := session.NewService(queries)
	sessionHandler := session.NewHandler(sessionService, authService, logger)

	// Board loader for the collaboration hub
	boardLoader := func(ctx context.Context, boardID string) (*document.Board, error) {
		if boardID == playgroundBoardID {
			return document.NewSampleBoard(playgroundBoardID), nil
		}
		doc, _, err := sessionService.LatestDocument(ctx, boardID)
		if err != nil {
			return nil, err
		}
		var board document.Board
		if err := json.Unmarshal(doc, &board); err != nil {
			return nil, err
		}
		return &board, nil
	}

	// Board saver for the collaboration hub
	boardSaver := func(ctx context.Context, boardID string, doc json.RawMessage) error {
		if boardID == playgroundBoardID {
			return nil
		}
		_, err := sessionService.SaveDocument(ctx, boardID, doc)
		return err
	}

	hub := collab.NewHub(boardLoader, boardSaver, cfg.SnapshotEvery)
	go hub.Run()

	assetHandler := asset.NewHandler(cfg.AssetDir)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Asset endpoints (public — used by playground and authenticated users)
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	authHandler.RegisterRoutes(r)
	sessionHandler.RegisterRoutes(r)

	// WebSocket endpoint
	r.HandleFunc("/ws/board/{boardId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, queries, cfg.AllowedOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty boards
		slog.Info("saving all boards...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, queries *db.Queries, allowedOrigins string) {
	vars := mux.Vars(r)
	boardID := vars["boardId"]

	var userID string
	var displayName string
	var role string

	if boardID == playgroundBoardID {
		// Anonymous user for playground
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
		role = session.RoleStudent
	} else if token := r.URL.Query().Get("token"); token != "" {
		// Teachers authenticate with a JWT
		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName

		participant, err := queries.GetParticipant(r.Context(), db.GetParticipantParams{
			BoardID: boardID,
			UserID:  userID,
		})
		if err != nil {
			http.Error(w, "not a board participant", http.StatusForbidden)
			return
		}
		role = participant.Role
	} else {
		// Students carry the identity minted by the join endpoint
		userID = r.URL.Query().Get("userId")
		if userID == "" {
			http.Error(w, "missing token or userId", http.StatusUnauthorized)
			return
		}

		participant, err := queries.GetParticipant(r.Context(), db.GetParticipantParams{
			BoardID: boardID,
			UserID:  userID,
		})
		if err != nil {
			http.Error(w, "not a board participant", http.StatusForbidden)
			return
		}
		displayName = participant.DisplayName
		role = participant.Role
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(allowedOrigins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, role, boardID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns turns "http://localhost:5173,http://localhost:3000"
// into the host patterns the websocket library matches against.
func originPatterns(allowedOrigins string) []string {
	var patterns []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		origin = strings.TrimPrefix(origin, "http://")
		origin = strings.TrimPrefix(origin, "https://")
		if origin != "" {
			patterns = append(patterns, origin)
		}
	}
	return patterns
}
