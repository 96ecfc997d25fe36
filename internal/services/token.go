package services

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"

	"traktsync/internal/models"
	"traktsync/internal/shared"
)

// TokenStore persists OAuth token material as JSON on disk.
//
// The file is the only state shared between runs; it is written after
// every exchange and refresh.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store backed by the file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the backing file path.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the persisted token record.
//
// A missing file yields [shared.ErrMissingToken]: the operator has to run
// the authorization flow before anything else works.
func (s *TokenStore) Load() (*models.TokenRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrMissingToken, s.path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var record models.TokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &record, nil
}

// Save writes the token record, replacing any previous one.
func (s *TokenStore) Save(record *models.TokenRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// recordFromToken converts an [oauth2.Token] into the persisted record
// format. Trakt reports created_at and expires_in in the token response;
// both fall back to values derived from now when absent.
func recordFromToken(tok *oauth2.Token, now time.Time) *models.TokenRecord {
	record := &models.TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}

	if v, ok := tok.Extra("expires_in").(float64); ok {
		record.ExpiresIn = int64(v)
	} else if !tok.Expiry.IsZero() {
		record.ExpiresIn = int64(tok.Expiry.Sub(now).Seconds())
	}

	if v, ok := tok.Extra("created_at").(float64); ok {
		record.CreatedAt = int64(v)
	} else {
		record.CreatedAt = now.Unix()
	}

	return record
}
