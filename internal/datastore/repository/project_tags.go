package repository

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
)

// ProjectTagCache holds the derived tag list of each annotation project.
// The list is a view over annotation_project_tags; writers call Refresh after
// committing new links and Invalidate after a rollback.
type ProjectTagCache struct {
	cache *cache.Cache
}

// NewProjectTagCache creates a cache whose entries expire after ttl.
func NewProjectTagCache(ttl time.Duration) *ProjectTagCache {
	return &ProjectTagCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func projectKey(projectID uint) string {
	return strconv.FormatUint(uint64(projectID), 10)
}

// Get returns the cached tag list of a project.
func (c *ProjectTagCache) Get(projectID uint) ([]entities.Tag, bool) {
	v, ok := c.cache.Get(projectKey(projectID))
	if !ok {
		return nil, false
	}
	tags, ok := v.([]entities.Tag)
	return tags, ok
}

// Invalidate drops the cached tag list of a project.
func (c *ProjectTagCache) Invalidate(projectID uint) {
	c.cache.Delete(projectKey(projectID))
}

// Refresh recomputes the tag list of a project from the store and caches it.
func (c *ProjectTagCache) Refresh(ctx context.Context, db *gorm.DB, projectID uint) ([]entities.Tag, error) {
	tags, err := LoadProjectTags(ctx, db, projectID)
	if err != nil {
		c.Invalidate(projectID)
		return nil, err
	}
	c.cache.Set(projectKey(projectID), tags, cache.DefaultExpiration)
	return tags, nil
}

// Tags returns the cached tag list, loading it on a miss.
func (c *ProjectTagCache) Tags(ctx context.Context, db *gorm.DB, projectID uint) ([]entities.Tag, error) {
	if tags, ok := c.Get(projectID); ok {
		return tags, nil
	}
	return c.Refresh(ctx, db, projectID)
}

// LoadProjectTags reads the tags linked to a project ordered by tag ID.
func LoadProjectTags(ctx context.Context, db *gorm.DB, projectID uint) ([]entities.Tag, error) {
	var tagIDs []uint
	err := db.WithContext(ctx).
		Model(&entities.AnnotationProjectTag{}).
		Where("annotation_project_id = ?", projectID).
		Pluck("tag_id", &tagIDs).Error
	if err != nil {
		return nil, dbError(err, "load project tags", entities.AnnotationProjectTag{}.TableName())
	}

	slices.Sort(tagIDs)
	tags := make([]entities.Tag, 0, len(tagIDs))
	for chunk := range chunks(tagIDs, maxParams) {
		var found []entities.Tag
		if err := db.WithContext(ctx).Where("id IN ?", chunk).Order("id").Find(&found).Error; err != nil {
			return nil, dbError(err, "load project tags", entities.Tag{}.TableName())
		}
		tags = append(tags, found...)
	}

	return tags, nil
}
