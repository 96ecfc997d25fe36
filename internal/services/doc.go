// Package services defines the [WatchlistClient], [LibraryClient] and
// [Notifier] interfaces and implements them for Trakt, Plex and Telegram.
//
// # Trakt Implementation
//
// [TraktService] owns the OAuth2 token lifecycle via [oauth2.Config] and
// a file-backed [TokenStore]. Every API call goes through AccessToken,
// which transparently refreshes a stale record (sixty seconds before
// expiry) and persists the result. A missing token or a failed refresh is
// fatal; the operator re-authorizes with the CLI auth flow.
//
// Requests are paced with a [rate.Limiter]. List removal retries HTTP 429
// after the Retry-After interval with a bounded attempt count; list reads
// soft-fail to an empty result.
//
// # Plex Implementation
//
// [PlexService] talks XML to a single Plex server, authenticated with the
// X-Plex-Token query parameter. Show matching runs both sides through
// shared.NormalizeTitle and accepts equality or a substring in either
// direction. Shows resolve to their season 1 episode 1 rating key since
// playlists hold playable entities, not containers.
//
// # Telegram Implementation
//
// [TelegramService] posts one HTML summary per run. Failures are logged
// by the engine and never propagated.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrMissingToken] : no persisted token, authorization needed
//   - [shared.ErrRefreshFailed] : token refresh rejected, fatal
//   - [shared.ErrNoMatch] : no library entity for a title, item skipped
//   - [shared.ErrRateLimited] : removal retry budget exhausted
//   - [shared.ErrAPIRequest] : any other HTTP failure
package services
