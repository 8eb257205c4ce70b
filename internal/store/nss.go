package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexconsult/zipcase/internal/models"
)

// nameSearchTTL bounds how long a name-search result stays queryable
// before the client is expected to have already read it, per spec.md §3.
const nameSearchTTL = 24 * time.Hour

// NameSearchStore is the Name-Search Store (NSS).
type NameSearchStore struct {
	client *redis.Client
}

func NewNameSearchStore(client *redis.Client) *NameSearchStore {
	return &NameSearchStore{client: client}
}

// NameSearch returns the NameSearchData for searchID, or ErrNotFound if
// it has expired or never existed.
func (s *NameSearchStore) NameSearch(ctx context.Context, searchID string) (*models.NameSearchData, error) {
	raw, err := s.client.Get(ctx, nameSearchKey(searchID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var data models.NameSearchData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// PutNameSearch persists or updates a name search, refreshing its TTL.
func (s *NameSearchStore) PutNameSearch(ctx context.Context, data models.NameSearchData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, nameSearchKey(data.SearchID), payload, nameSearchTTL).Err()
}
