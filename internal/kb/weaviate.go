package kb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/pkg/logger"
)

// docNamespace seeds deterministic document ids so the same text maps to
// the same object across add calls.
var docNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// StableID derives the deterministic id for a document text.
func StableID(text string) string {
	return uuid.NewSHA1(docNamespace, []byte(text)).String()
}

// WeaviateIndex is an Index backed by one Weaviate class per tenant.
type WeaviateIndex struct {
	client *weaviate.Client
	class  string
	log    *logger.Logger

	schemaOnce sync.Once
	schemaErr  error
}

// NewWeaviateClient connects to a Weaviate endpoint given as a URL.
func NewWeaviateClient(url string) (*weaviate.Client, error) {
	cfg := weaviate.Config{Host: url, Scheme: "http"}
	if strings.HasPrefix(url, "https://") {
		cfg.Scheme = "https"
		cfg.Host = strings.TrimPrefix(url, "https://")
	} else if strings.HasPrefix(url, "http://") {
		cfg.Host = strings.TrimPrefix(url, "http://")
	}
	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return client, nil
}

// NewWeaviateIndex creates the index for one tenant. The class is created
// lazily on first use.
func NewWeaviateIndex(client *weaviate.Client, tenantID string, log *logger.Logger) *WeaviateIndex {
	return &WeaviateIndex{
		client: client,
		class:  "SupportDoc_" + tenantID,
		log:    log,
	}
}

func (w *WeaviateIndex) ensureSchema(ctx context.Context) error {
	w.schemaOnce.Do(func() {
		_, err := w.client.Schema().ClassGetter().WithClassName(w.class).Do(ctx)
		if err == nil {
			return
		}
		class := &models.Class{
			Class:      w.class,
			Vectorizer: "text2vec-transformers",
			Properties: []*models.Property{
				{Name: "docId", DataType: []string{"text"}},
				{Name: "content", DataType: []string{"text"}},
				{Name: "source", DataType: []string{"text"}},
			},
		}
		if err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
			w.schemaErr = fmt.Errorf("create class %s: %w", w.class, err)
		}
	})
	return w.schemaErr
}

// Search returns the top-k similar documents. An unreachable backend or a
// missing class yields zero documents and no error; the caller falls
// through to handoff.
func (w *WeaviateIndex) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if w == nil || w.client == nil {
		return nil, nil
	}
	if k <= 0 {
		k = 2
	}

	nearText := w.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "docId"},
		{Name: "content"},
		{Name: "source"},
		{Name: "_additional { certainty }"},
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(w.class).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		w.log.Warn("kb search failed", zap.String("class", w.class), zap.Error(err))
		return nil, nil
	}
	if len(result.Errors) > 0 {
		w.log.Warn("kb search returned errors",
			zap.String("class", w.class),
			zap.String("message", result.Errors[0].Message))
		return nil, nil
	}

	return w.parseDocuments(result.Data), nil
}

func (w *WeaviateIndex) parseDocuments(data map[string]models.JSONObject) []Document {
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return nil
	}
	rows, ok := get[w.class].([]any)
	if !ok {
		return nil
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		props, ok := row.(map[string]any)
		if !ok {
			continue
		}
		doc := Document{Metadata: map[string]any{}}
		if id, ok := props["docId"].(string); ok {
			doc.ID = id
			doc.Metadata["id"] = id
		}
		if content, ok := props["content"].(string); ok {
			doc.Content = content
		}
		if source, ok := props["source"].(string); ok && source != "" {
			doc.Metadata["source"] = source
		}
		docs = append(docs, doc)
	}
	return docs
}

// Add inserts items with deterministic ids; ids that already exist are
// reported as skipped.
func (w *WeaviateIndex) Add(ctx context.Context, items []AddItem) ([]string, []string, error) {
	if w == nil || w.client == nil {
		return nil, nil, fmt.Errorf("vector store unavailable")
	}
	if err := w.ensureSchema(ctx); err != nil {
		return nil, nil, err
	}

	var added, skipped []string
	for _, item := range items {
		id := item.ID
		if id == "" {
			id = StableID(item.Text)
		}

		exists, err := w.client.Data().Checker().
			WithClassName(w.class).
			WithID(id).
			Do(ctx)
		if err == nil && exists {
			skipped = append(skipped, id)
			continue
		}

		source := "api"
		if s, ok := item.Metadata["source"].(string); ok && s != "" {
			source = s
		}
		_, err = w.client.Data().Creator().
			WithClassName(w.class).
			WithID(id).
			WithProperties(map[string]any{
				"docId":   id,
				"content": item.Text,
				"source":  source,
			}).
			Do(ctx)
		if err != nil {
			return added, skipped, fmt.Errorf("add document %s: %w", id, err)
		}
		added = append(added, id)
	}
	return added, skipped, nil
}

// Delete removes documents by id.
func (w *WeaviateIndex) Delete(ctx context.Context, ids []string) (int, error) {
	if w == nil || w.client == nil {
		return 0, fmt.Errorf("vector store unavailable")
	}

	affected := 0
	for _, id := range ids {
		err := w.client.Data().Deleter().
			WithClassName(w.class).
			WithID(id).
			Do(ctx)
		if err != nil {
			w.log.Warn("kb delete failed", zap.String("id", id), zap.Error(err))
			continue
		}
		affected++
	}
	return affected, nil
}

// Ready reports whether the backend answers its readiness probe.
func (w *WeaviateIndex) Ready(ctx context.Context) bool {
	if w == nil || w.client == nil {
		return false
	}
	ok, err := w.client.Misc().ReadyChecker().Do(ctx)
	return err == nil && ok
}
