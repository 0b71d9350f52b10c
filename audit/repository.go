// audit/repository.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/relay/logging"
)

// ErrQueryUnsupported is returned by repositories that cannot be searched.
var ErrQueryUnsupported = errors.New("audit log querying is not available")

type Repository interface {
	Save(ctx context.Context, log AuditLog) error
	Query(ctx context.Context, query LogQuery) ([]AuditLog, error)
}

type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
	index    string
}

// NewElasticsearchRepository creates a new repository with a given Elasticsearch client URL.
func NewElasticsearchRepository(esURL, index string) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ElasticsearchRepository{esClient: esClient, index: index}, nil
}

// Save indexes an audit entry.
func (r *ElasticsearchRepository) Save(ctx context.Context, log AuditLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: log.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source AuditLog `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Query searches audit entries within a time frame, optionally filtered by
// user and resource, newest first.
func (r *ElasticsearchRepository) Query(ctx context.Context, query LogQuery) ([]AuditLog, error) {
	must := []map[string]interface{}{
		{
			"range": map[string]interface{}{
				"timestamp": map[string]interface{}{
					"gte": query.From.Format(time.RFC3339),
					"lte": query.To.Format(time.RFC3339),
				},
			},
		},
	}
	if query.UserID != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"user_id.keyword": query.UserID}})
	}
	if query.ResourceID != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"resource_id.keyword": query.ResourceID}})
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{"bool": map[string]interface{}{"must": must}},
		"sort":  []interface{}{map[string]interface{}{"timestamp": map[string]interface{}{"order": "desc"}}},
		"from":  query.Offset,
		"size":  query.Limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.index),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching documents: %s", res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	logs := make([]AuditLog, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		logs = append(logs, hit.Source)
	}
	return logs, nil
}

// LogRepository writes audit entries to the application log. It is used when
// no Elasticsearch cluster is configured.
type LogRepository struct{}

func NewLogRepository() *LogRepository {
	return &LogRepository{}
}

func (r *LogRepository) Save(ctx context.Context, log AuditLog) error {
	logger.Info("AUDIT",
		zap.String("id", log.ID),
		zap.String("action", log.Action),
		zap.String("userID", log.UserID),
		zap.String("resourceID", log.ResourceID),
		zap.String("source", log.Source),
		zap.String("destination", log.Destination),
		zap.Time("timestamp", log.Timestamp))
	return nil
}

func (r *LogRepository) Query(ctx context.Context, query LogQuery) ([]AuditLog, error) {
	return nil, ErrQueryUnsupported
}
