// Package websocket pushes live profile and gallery snapshots to
// connected browsers.
package websocket

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/store"
	syncpkg "github.com/zack-george/instanthspro/internal/sync"
	"github.com/zack-george/instanthspro/pkg/auth"
)

// Server upgrades authenticated requests and attaches one Syncer per
// connection. Each connection observes exactly one identity.
type Server struct {
	store     store.Store
	validator *auth.Validator
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

// NewServer creates a new websocket server.
func NewServer(st store.Store, validator *auth.Validator, allowedOrigins []string, logger *zap.Logger) *Server {
	return &Server{
		store:     st,
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.Named("WebSocket"),
	}
}

// HandleWebSocket handles GET /ws upgrade requests.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authenticateRequest(r)
	if err != nil {
		s.logger.Debug("rejected websocket upgrade",
			zap.String("remoteAddr", r.RemoteAddr),
			zap.Error(err),
		)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	syncer := syncpkg.NewSyncer(s.store, s.logger)
	if err := syncer.Start(ctx, claims.UserID, claims.Email); err != nil {
		s.logger.Error("failed to start syncer",
			zap.String("userID", claims.UserID),
			zap.Error(err),
		)
		cancel()
		conn.Close()
		return
	}

	client := newConnection(claims.UserID, conn, syncer, cancel, s.logger)
	client.start()

	s.logger.Info("websocket connection established", zap.String("userID", claims.UserID))
}

// authenticateRequest validates the access token. Browsers cannot set
// headers on upgrade requests, so a token query parameter is accepted
// alongside the Authorization header.
func (s *Server) authenticateRequest(r *http.Request) (*auth.Claims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		return nil, errors.New("no authentication token provided")
	}
	return s.validator.ValidateToken(token)
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
