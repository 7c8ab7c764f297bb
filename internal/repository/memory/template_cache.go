package memory

import (
	"time"

	"ai-storybook-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// TemplateCache keeps narrative templates in memory. Templates are immutable
// reference data, so a long TTL is safe; admin edits call Invalidate.
type TemplateCache struct {
	cache *cache.Cache
}

func NewTemplateCache() *TemplateCache {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &TemplateCache{
		cache: c,
	}
}

func (r *TemplateCache) Save(template *entity.NarrativeTemplate) {
	r.cache.Set(template.Id.String(), template, cache.DefaultExpiration)
}

func (r *TemplateCache) Get(id uuid.UUID) (*entity.NarrativeTemplate, bool) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.NarrativeTemplate), true
	}
	return nil, false
}

func (r *TemplateCache) Invalidate(id uuid.UUID) {
	r.cache.Delete(id.String())
}
