// Package models defines domain entities shared across the sync service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing external service data
//   - [ListItem] : A movie or show entry on a Trakt list
//   - [MovieMatch] : A candidate from a Plex movie search
//   - [TokenRecord] : Persisted OAuth token material with staleness tracking
//
// 2. Run records:
//   - [SyncOutcome] : Ordered added/removed/skipped titles accumulated during a run
//
// Identity rules: a ListItem is identified for removal by its IDs map plus
// Kind, never by title. Plex entities are identified by rating key, the
// server's opaque stable identifier.
package models
