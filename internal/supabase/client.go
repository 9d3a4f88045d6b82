package supabase

import (
	"fmt"
	"strings"

	"github.com/supabase-community/supabase-go"

	"artprint-backend/internal/config"
)

type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

// NewClient builds a service-role Supabase client. Only its Storage API is
// used; the relational store is reached directly over database/sql.
func NewClient(cfg *config.Config) (*Client, error) {
	url := strings.TrimRight(cfg.SupabaseURL, "/")
	client, err := supabase.NewClient(url, cfg.SupabaseServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}

// BlobStore returns the configured storage bucket as a blob store.
func (c *Client) BlobStore() *StorageClient {
	return NewStorageClient(c.Supabase.Storage, c.Config.SupabaseStorageBucket)
}
