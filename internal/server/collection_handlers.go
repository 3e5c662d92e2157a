package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookhub-dev/bookhub/internal/models"
	"github.com/bookhub-dev/bookhub/internal/tasks"
)

// AddCollectionRequest creates a named collection
type AddCollectionRequest struct {
	Name string `json:"collection_name" binding:"required"`
}

// AddResourceRequest adds a resource to an existing collection
type AddResourceRequest struct {
	CollectionName string `json:"collection_name" binding:"required"`
	Name           string `json:"resource_name" binding:"required"`
	Link           string `json:"link" binding:"required,url"`
	Description    string `json:"description"`
}

// CollectionDetail is one collection entry in the listing
type CollectionDetail struct {
	Name string `json:"collection_name"`
}

// ResourceDetail is one resource entry within a collection
type ResourceDetail struct {
	Name        string `json:"resource_name"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// @Summary List collections
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Success 200 {array} CollectionDetail
// @Router /api/collections_list [get]
func (s *Server) listCollections(c *gin.Context) {
	var collections []models.Collection
	if err := s.db.Order("name ASC").Find(&collections).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list collections")
		internalError(c)
		return
	}

	details := make([]CollectionDetail, len(collections))
	for i, col := range collections {
		details[i] = CollectionDetail{Name: col.Name}
	}
	c.JSON(http.StatusOK, details)
}

// @Summary List resources in a collection
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param collection_name path string true "Collection name"
// @Success 200 {array} ResourceDetail
// @Router /api/collections_list/{collection_name}/resources [get]
func (s *Server) listResources(c *gin.Context) {
	collectionName := c.Param("collection_name")

	var resources []models.Resource
	err := s.db.Where("collection_name = ? AND name != ''", collectionName).
		Order("name ASC").Find(&resources).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list resources")
		internalError(c)
		return
	}

	details := make([]ResourceDetail, len(resources))
	for i, r := range resources {
		details[i] = ResourceDetail{Name: r.Name, Link: r.Link, Description: r.Description}
	}
	c.JSON(http.StatusOK, details)
}

// @Summary Create a collection
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddCollectionRequest true "Collection"
// @Success 200 {object} map[string]interface{}
// @Router /api/add_collection [post]
func (s *Server) addCollection(c *gin.Context) {
	var req AddCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		envelope(c, http.StatusBadRequest, "Collection name cannot be empty")
		return
	}

	var count int64
	if err := s.db.Model(&models.Collection{}).Where("name = ?", name).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check for existing collection")
		internalError(c)
		return
	}
	if count > 0 {
		envelope(c, http.StatusConflict, "The collection already exists.")
		return
	}

	if err := s.db.Create(&models.Collection{Name: name}).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create collection")
		internalError(c)
		return
	}

	s.publisher.Publish(tasks.TypeCollectionCreated, map[string]string{"collection_name": name})

	envelope(c, http.StatusCreated, "Collection added successfully.")
}

// @Summary Add a resource to a collection
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddResourceRequest true "Resource"
// @Success 200 {object} map[string]interface{}
// @Router /api/add_resource [post]
func (s *Server) addResource(c *gin.Context) {
	var req AddResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var collection models.Collection
	if err := s.db.Where("name = ?", req.CollectionName).First(&collection).Error; err != nil {
		envelope(c, http.StatusNotFound, "Collection not found")
		return
	}

	resource := &models.Resource{
		CollectionName: req.CollectionName,
		Name:           req.Name,
		Link:           req.Link,
		Description:    req.Description,
	}
	if err := s.db.Create(resource).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create resource")
		internalError(c)
		return
	}

	s.publisher.Publish(tasks.TypeResourceAdded, map[string]string{
		"collection_name": req.CollectionName,
		"resource_name":   req.Name,
	})

	envelope(c, http.StatusCreated, "Resource added successfully.")
}

// @Summary Delete a collection and its resources
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param collection_name path string true "Collection name"
// @Success 200 {object} map[string]interface{}
// @Router /api/delete_collection/{collection_name} [delete]
func (s *Server) deleteCollection(c *gin.Context) {
	name := c.Param("collection_name")

	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_name = ?", name).Delete(&models.Resource{}).Error; err != nil {
			return err
		}
		res := tx.Where("name = ?", name).Delete(&models.Collection{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete collection")
		internalError(c)
		return
	}
	if deleted == 0 {
		envelope(c, http.StatusNotFound, "Collection not found")
		return
	}

	s.publisher.Publish(tasks.TypeCollectionDeleted, map[string]string{"collection_name": name})

	envelope(c, http.StatusOK, "Collection and its resources deleted successfully")
}

// @Summary Delete a single resource
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param collection_name path string true "Collection name"
// @Param resource_name path string true "Resource name"
// @Success 200 {object} map[string]interface{}
// @Router /api/delete_resource/{collection_name}/{resource_name} [delete]
func (s *Server) deleteResource(c *gin.Context) {
	collectionName := c.Param("collection_name")
	resourceName := c.Param("resource_name")

	res := s.db.Where("collection_name = ? AND name = ?", collectionName, resourceName).
		Delete(&models.Resource{})
	if res.Error != nil {
		s.logger.Error().Err(res.Error).Msg("Failed to delete resource")
		internalError(c)
		return
	}
	if res.RowsAffected == 0 {
		envelope(c, http.StatusNotFound, "Resource not found")
		return
	}

	s.publisher.Publish(tasks.TypeResourceDeleted, map[string]string{
		"collection_name": collectionName,
		"resource_name":   resourceName,
	})

	envelope(c, http.StatusOK, "Resource deleted successfully")
}
