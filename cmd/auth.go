package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"traktsync/internal/server"
	"traktsync/internal/services"
	"traktsync/internal/shared"
)

// authTimeout bounds how long the callback flow waits for the user to
// approve the application in the browser.
const authTimeout = 3 * time.Minute

// traktService returns the concrete Trakt client, constructing one from
// configuration when the runner was wired with a bare interface.
func (r *Runner) traktService() (*services.TraktService, error) {
	if svc, ok := r.watchlist.(*services.TraktService); ok {
		return svc, nil
	}

	store := services.NewTokenStore(r.config.Trakt.TokenPath)
	return services.NewTraktService(r.config.Trakt, store, r.logger)
}

// AuthLogin performs the OAuth2 authorization-code flow against Trakt.
//
// By default it starts a local HTTP server, opens the browser for user
// approval, and exchanges the code delivered to the callback. With
// --manual it falls back to the original out-of-band flow: print the
// URL, let the user paste the displayed code.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.traktService()
	if err != nil {
		return err
	}

	if cmd.Bool("manual") {
		return r.authLoginManual(ctx, svc)
	}

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(svc.OAuthConfig(), state)

	router := server.NewBasicRouter()
	router.Handler(handler)

	httpServer := &http.Server{Addr: ":8585", Handler: router}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	authURL := svc.AuthCodeURL(state)
	r.writePlain("Opening browser for Trakt authorization...\n")
	r.writePlain("If it does not open, visit:\n%s\n\n", authURL)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("could not open browser", "error", err)
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
		}
		record, err := svc.SaveToken(result.Token)
		if err != nil {
			return err
		}
		r.writePlainln("✓ Authorization successful")
		r.writePlain("✓ Token saved, valid until %s\n", record.ExpiresAt().Format(time.RFC1123))
		return nil
	case <-time.After(authTimeout):
		return fmt.Errorf("%w: no authorization callback within %s", shared.ErrAuthFailed, authTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// authLoginManual runs the paste-the-code flow with the OOB redirect.
func (r *Runner) authLoginManual(ctx context.Context, svc *services.TraktService) error {
	svc.UseOOBRedirect()

	state := shared.GenerateID()
	r.writePlain("Open this URL, approve the application, and paste the displayed code:\n\n%s\n\n", svc.AuthCodeURL(state))
	r.writePlain("Code: ")

	scanner := bufio.NewScanner(r.input)
	if !scanner.Scan() {
		return fmt.Errorf("%w: no code entered", shared.ErrMissingArgument)
	}
	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return fmt.Errorf("%w: no code entered", shared.ErrMissingArgument)
	}

	record, err := svc.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved, valid until %s\n", record.ExpiresAt().Format(time.RFC1123))
	return nil
}

// AuthStatus reports the freshness of the stored token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.traktService()
	if err != nil {
		return err
	}

	record, err := svc.TokenStatus()
	if err != nil {
		return err
	}

	r.writePlain("Token type: %s\n", record.TokenType)
	r.writePlain("Expires: %s\n", record.ExpiresAt().Format(time.RFC1123))
	if record.Stale(time.Now()) {
		r.writePlain("Status: ✗ Stale (will refresh on next sync)\n")
	} else {
		r.writePlain("Status: ✓ Fresh\n")
	}

	return nil
}

// AuthRefresh forces a token refresh now.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.traktService()
	if err != nil {
		return err
	}

	record, err := svc.TokenStatus()
	if err != nil {
		return err
	}

	refreshed, err := svc.Refresh(ctx, record)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Token refreshed")
	r.writePlain("Valid until %s\n", refreshed.ExpiresAt().Format(time.RFC1123))
	return nil
}
