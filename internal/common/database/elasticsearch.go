// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"actuator-workers/internal/common/config"
	"actuator-workers/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
)

type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// ElasticsearchOption customises the underlying client configuration.
type ElasticsearchOption func(*elasticsearch.Config)

// WithTransport replaces the HTTP transport, used by tests to serve canned responses.
func WithTransport(rt http.RoundTripper) ElasticsearchOption {
	return func(c *elasticsearch.Config) {
		c.Transport = rt
	}
}

func NewElasticsearch(cfg config.ElasticsearchConfig, opts ...ElasticsearchOption) (*ElasticsearchClient, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch addresses are empty")
	}

	esCfg := elasticsearch.Config{
		Addresses:     cfg.Addresses,
		RetryOnStatus: []int{502, 503, 504},
		MaxRetries:    3,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	for _, opt := range opts {
		opt(&esCfg)
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(fmt.Errorf("elasticsearch ping: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewDatabaseConnectionFailedError(fmt.Errorf("elasticsearch ping: %s", res.Status()))
	}
	return nil
}

// CheckIndices fails on the first index that does not exist.
func (c *ElasticsearchClient) CheckIndices(ctx context.Context, indices ...string) error {
	for _, index := range indices {
		res, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
		if err != nil {
			return errors.NewDatabaseConnectionFailedError(fmt.Errorf("index %q: %w", index, err))
		}
		res.Body.Close()
		if res.StatusCode == http.StatusNotFound {
			return errors.NewDatabaseConnectionFailedError(fmt.Errorf("index %q not found", index))
		}
		if res.IsError() {
			return errors.NewDatabaseConnectionFailedError(fmt.Errorf("index %q: %s", index, res.Status()))
		}
	}
	return nil
}
