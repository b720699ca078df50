// Package tenant maps tenant ids to their isolated resources: knowledge
// base index, orders database, checkpoint store and support log.
package tenant

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/internal/checkpoint"
	"github.com/edudesk-ai/support-engine/internal/kb"
	"github.com/edudesk-ai/support-engine/internal/orders"
	"github.com/edudesk-ai/support-engine/internal/support"
	"github.com/edudesk-ai/support-engine/pkg/logger"
)

// Resources bundles everything scoped to one tenant.
type Resources struct {
	TenantID    string
	KB          kb.Index
	Orders      *orders.Store
	Checkpoints *checkpoint.Store
	Support     *support.Log
	DataDir     string
}

// Resolver creates tenant resources on first use and caches them.
type Resolver struct {
	mu      sync.RWMutex
	tenants map[string]*Resources

	baseDir  string
	weaviate *weaviate.Client
	log      *logger.Logger
}

func NewResolver(baseDir string, wv *weaviate.Client, log *logger.Logger) *Resolver {
	return &Resolver{
		tenants:  make(map[string]*Resources),
		baseDir:  baseDir,
		weaviate: wv,
		log:      log,
	}
}

// Resolve returns the resources for a tenant, building them on first use.
// The tenant id must already be normalized by the middleware.
func (r *Resolver) Resolve(tenantID string) (*Resources, error) {
	r.mu.RLock()
	res, ok := r.tenants[tenantID]
	r.mu.RUnlock()
	if ok {
		return res, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.tenants[tenantID]; ok {
		return res, nil
	}

	res, err := r.build(tenantID)
	if err != nil {
		return nil, err
	}
	r.tenants[tenantID] = res
	r.log.Info("tenant resources created", zap.String("tenant_id", tenantID))
	return res, nil
}

func (r *Resolver) build(tenantID string) (*Resources, error) {
	dir := filepath.Join(r.baseDir, "tenants", tenantID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tenant dir: %w", err)
	}

	ordersStore, err := orders.NewStore(filepath.Join(dir, "orders.db"), r.log)
	if err != nil {
		return nil, err
	}
	checkpoints, err := checkpoint.NewStore(filepath.Join(dir, "checkpoints.db"))
	if err != nil {
		ordersStore.Close()
		return nil, err
	}
	supportLog, err := support.NewLog(filepath.Join(dir, "support.db"), r.log)
	if err != nil {
		ordersStore.Close()
		checkpoints.Close()
		return nil, err
	}

	return &Resources{
		TenantID:    tenantID,
		KB:          kb.NewWeaviateIndex(r.weaviate, tenantID, r.log),
		Orders:      ordersStore,
		Checkpoints: checkpoints,
		Support:     supportLog,
		DataDir:     dir,
	}, nil
}

// Close releases all tenant resources.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, res := range r.tenants {
		res.Orders.Close()
		res.Checkpoints.Close()
		res.Support.Close()
		delete(r.tenants, id)
	}
}
