package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
)

func (s *Server) GetProfile(c *gin.Context) {
	resp, err := s.profileSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateProfile(c *gin.Context) {
	var req profiledomain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.profileSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
