// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"strings"

	"card-decision-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// cbsIndexMapping keeps cnic and application_id as exact-match keywords.
const cbsIndexMapping = `{
  "mappings": {
    "properties": {
      "application_id":        {"type": "keyword"},
      "cnic":                  {"type": "keyword"},
      "application_score":     {"type": "float"},
      "behavioral_score":      {"type": "float"},
      "application_breakdown": {"type": "object", "enabled": false},
      "behavioral_breakdown":  {"type": "object", "enabled": false},
      "reported_at":           {"type": "date"}
    }
  }
}`

type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// EnsureCBSIndex creates the CBS summary index if it is missing.
func (c *ElasticsearchClient) EnsureCBSIndex(ctx context.Context, index string) error {
	exists, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}

	res, err := c.Client.Indices.Create(index,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(cbsIndexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
