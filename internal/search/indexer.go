// Package search indexes submitted loan applications into Elasticsearch for
// the admin back-office list and search views.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"loanbridge/internal/common/errors"
	"loanbridge/internal/common/logger"
	"loanbridge/internal/models"
)

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search", "index": index}),
	}
}

// applicationDoc is the flattened shape stored in the index.
type applicationDoc struct {
	ID             string  `json:"id"`
	UserID         string  `json:"userId"`
	Amount         int64   `json:"amount"`
	TenureMonths   int     `json:"tenureMonths"`
	InterestRate   float64 `json:"interestRate"`
	Purpose        string  `json:"purpose"`
	EmploymentType string  `json:"employmentType"`
	Status         string  `json:"status"`
	City           string  `json:"city"`
	CreatedAt      string  `json:"createdAt"`
}

// IndexApplication writes or overwrites the application's document.
func (ix *Indexer) IndexApplication(ctx context.Context, app *models.LoanApplication) error {
	city, _ := app.ContactDetails["city"].(string)
	doc := applicationDoc{
		ID:             app.ID,
		UserID:         app.UserID,
		Amount:         app.Amount,
		TenureMonths:   app.TenureMonths,
		InterestRate:   app.InterestRate,
		Purpose:        app.Purpose,
		EmploymentType: app.EmploymentType,
		Status:         string(app.Status),
		City:           city,
		CreatedAt:      app.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal search document: %w", err)
	}

	res, err := ix.client.Index(
		ix.index,
		bytes.NewReader(body),
		ix.client.Index.WithDocumentID(app.ID),
		ix.client.Index.WithContext(ctx),
		ix.client.Index.WithRefresh("false"),
	)
	if err != nil {
		return errors.NewSearchIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchIndexFailedError(fmt.Errorf("index response: %s", res.Status()))
	}
	return nil
}

// SearchResult is one admin search hit.
type SearchResult struct {
	Total int                      `json:"total"`
	Hits  []map[string]interface{} `json:"hits"`
}

// Search runs the admin query: free text over purpose/city/status plus an
// optional status filter.
func (ix *Indexer) Search(ctx context.Context, query, status string, size int) (*SearchResult, error) {
	if size <= 0 || size > 100 {
		size = 20
	}

	must := []map[string]interface{}{}
	if query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"purpose", "city", "employmentType", "status"},
			},
		})
	}
	if status != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"status": status},
		})
	}
	if len(must) == 0 {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	esQuery := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
		"sort": []map[string]interface{}{
			{"createdAt": map[string]interface{}{"order": "desc"}},
		},
	}

	body, err := json.Marshal(esQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := ix.client.Search(
		ix.client.Search.WithContext(ctx),
		ix.client.Search.WithIndex(ix.index),
		ix.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(fmt.Errorf("search response: %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}

	out := &SearchResult{Total: parsed.Hits.Total.Value}
	for _, h := range parsed.Hits.Hits {
		out.Hits = append(out.Hits, h.Source)
	}
	return out, nil
}
