package models

import (
	"testing"
	"time"
)

func TestTokenRecord(t *testing.T) {
	record := &TokenRecord{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		CreatedAt:    1_000_000,
	}

	// staleness boundary: created_at + expires_in - 60
	boundary := time.Unix(1_000_000+3600-60, 0)

	t.Run("fresh one second before boundary", func(t *testing.T) {
		if record.Stale(boundary.Add(-time.Second)) {
			t.Error("expected token to be fresh one second before the boundary")
		}
	})

	t.Run("stale at boundary", func(t *testing.T) {
		if !record.Stale(boundary) {
			t.Error("expected token to be stale at the boundary")
		}
	})

	t.Run("stale after expiry", func(t *testing.T) {
		if !record.Stale(record.ExpiresAt().Add(time.Hour)) {
			t.Error("expected token to be stale after expiry")
		}
	})

	t.Run("ExpiresAt", func(t *testing.T) {
		want := time.Unix(1_000_000+3600, 0)
		if !record.ExpiresAt().Equal(want) {
			t.Errorf("ExpiresAt() = %v, want %v", record.ExpiresAt(), want)
		}
	})
}

func TestSyncOutcome(t *testing.T) {
	t.Run("empty outcome", func(t *testing.T) {
		outcome := &SyncOutcome{Skipped: []string{"Unmatched"}}
		if !outcome.Empty() {
			t.Error("expected outcome with only skips to be empty")
		}
	})

	t.Run("non-empty after add", func(t *testing.T) {
		outcome := &SyncOutcome{Added: []string{"Dune (2021)"}}
		if outcome.Empty() {
			t.Error("expected outcome with adds to be non-empty")
		}
	})
}
