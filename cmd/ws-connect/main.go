// ws-connect signs in against Supabase and streams the live profile and
// gallery snapshots from a running backend. Useful for poking at the
// realtime surface without a browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/identity"
)

func main() {
	var (
		serverURL = flag.String("server", "ws://localhost:8080/ws", "websocket endpoint")
		email     = flag.String("email", "", "account email")
		password  = flag.String("password", "", "account password")
	)
	flag.Parse()

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_ANON_KEY")
	if supabaseURL == "" || supabaseKey == "" || *email == "" || *password == "" {
		log.Fatal("SUPABASE_URL, SUPABASE_ANON_KEY, -email and -password are required")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	client, err := supabase.NewClient(supabaseURL, supabaseKey, nil)
	if err != nil {
		logger.Fatal("failed to create supabase client", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokens := &identity.MemoryTokenStore{}
	provider := identity.NewSupabaseProvider(client, tokens, logger)
	session := identity.NewSessionManager(provider, logger)
	session.Start(ctx)
	defer session.Stop()

	if err := session.SignIn(ctx, identity.Credentials{Email: *email, Password: *password}); err != nil {
		logger.Fatal("sign-in failed", zap.Error(err))
	}
	ident := session.Identity()
	if ident == nil {
		logger.Fatal("sign-in produced no identity")
	}
	logger.Info("signed in", zap.String("userID", ident.ID))

	access, _, ok := tokens.Load()
	if !ok {
		logger.Fatal("no access token persisted")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, fmt.Sprintf("%s?token=%s", *serverURL, access), nil)
	if err != nil {
		logger.Fatal("failed to connect", zap.Error(err))
	}
	defer conn.Close()

	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				logger.Info("connection closed", zap.Error(err))
				cancel()
				return
			}
			fmt.Println(string(message))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	session.SignOut(ctx)
}
