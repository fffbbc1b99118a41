package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/finance_tracker/internal/config"
	"github.com/Skotchmaster/finance_tracker/internal/models"
)

// Indexer mirrors ledger writes into a search engine. The ledger never reads
// from it.
type Indexer interface {
	IndexTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

type Noop struct{}

func (Noop) IndexTransaction(context.Context, *models.Transaction) error { return nil }
func (Noop) DeleteTransaction(context.Context, string) error            { return nil }

type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

// NewClient connects to Elasticsearch and checks the cluster answers.
func NewClient(ctx context.Context, cfg *config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	return client, nil
}

func NewESIndexer(client *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{client: client, index: index}
}

func (i *ESIndexer) IndexTransaction(ctx context.Context, t *models.Transaction) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(t); err != nil {
		return fmt.Errorf("index transaction: %w", err)
	}

	res, err := i.client.Index(i.index, &buf,
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(t.ID),
	)
	if err != nil {
		return fmt.Errorf("index transaction: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index transaction %s: %s", t.ID, res.Status())
	}
	return nil
}

func (i *ESIndexer) DeleteTransaction(ctx context.Context, id string) error {
	res, err := i.client.Delete(i.index, id, i.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete transaction %s: %s", id, res.Status())
	}
	return nil
}
