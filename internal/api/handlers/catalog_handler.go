package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/services"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/utils"
)

type CatalogHandler struct {
	catalog services.CatalogService
	log     *logrus.Logger
}

func NewCatalogHandler(catalog services.CatalogService, log *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.ListCourses(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("list courses failed")
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *CatalogHandler) ListVideos(c *gin.Context) {
	videos, err := h.catalog.ListVideos(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		h.log.WithError(err).Error("list videos failed")
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

type invalidateRequest struct {
	CourseID string `json:"courseId"`
	VideoID  string `json:"videoId"`
}

// Invalidate drops cached catalog listings after an admin-side content
// change. A courseId drops that course's listings; a bare videoId drops
// every video listing because the owning course is unknown here.
func (h *CatalogHandler) Invalidate(c *gin.Context) {
	const op = "CatalogHandler.Invalidate"

	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	if req.CourseID == "" && req.VideoID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "courseId or videoId is required", nil))
		return
	}

	ctx := c.Request.Context()
	var err error
	if req.CourseID != "" {
		err = h.catalog.InvalidateCourse(ctx, req.CourseID)
	} else {
		err = h.catalog.InvalidateVideos(ctx)
	}
	if err != nil {
		h.log.WithError(err).Error("cache invalidation failed")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invalidated": true})
}
