package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/nutriplan-backend/internal/http/response"
	"github.com/yungbote/nutriplan-backend/internal/services"
)

type BucketProfileHandler struct {
	profiles services.BucketProfileService
}

func NewBucketProfileHandler(profiles services.BucketProfileService) *BucketProfileHandler {
	return &BucketProfileHandler{profiles: profiles}
}

// POST /api/systems/:systemId/bucket-profiles/:version/rebuild
func (h *BucketProfileHandler) Rebuild(c *gin.Context) {
	res, err := h.profiles.Rebuild(c.Request.Context(), c.Param("systemId"), c.Param("version"))
	if err != nil {
		response.RespondErr(c, err, "rebuild_failed")
		return
	}
	response.RespondOK(c, gin.H{"rebuild": res})
}

// GET /api/systems/:systemId/bucket-profiles/latest
func (h *BucketProfileHandler) Latest(c *gin.Context) {
	version, err := h.profiles.LatestVersion(c.Request.Context(), c.Param("systemId"))
	if err != nil {
		response.RespondErr(c, err, "latest_version_failed")
		return
	}
	response.RespondOK(c, gin.H{"system_id": c.Param("systemId"), "profile_version": version})
}

// GET /api/systems/:systemId/bucket-profiles/:version
func (h *BucketProfileHandler) Get(c *gin.Context) {
	rows, err := h.profiles.Load(c.Request.Context(), c.Param("systemId"), c.Param("version"))
	if err != nil {
		response.RespondErr(c, err, "load_profiles_failed")
		return
	}
	response.RespondOK(c, gin.H{
		"system_id":       c.Param("systemId"),
		"profile_version": c.Param("version"),
		"profiles":        rows,
	})
}
