package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/response"
	"github.com/studyhall/studyhall-gateway/internal/store"
)

// PackageHandler serves the package catalog endpoints.
type PackageHandler struct {
	packages *store.PackageStore
}

// NewPackageHandler creates a new PackageHandler.
func NewPackageHandler(packages *store.PackageStore) *PackageHandler {
	return &PackageHandler{packages: packages}
}

// ListPackages godoc
// GET /api/v1/packages
func (h *PackageHandler) ListPackages(c *gin.Context) {
	packages, err := h.packages.FetchList(upstreamCtx(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	if packages == nil {
		packages = []model.Package{}
	}
	response.Success(c, http.StatusOK, gin.H{"packages": packages})
}

// GetPackage godoc
// GET /api/v1/packages/:package_id
func (h *PackageHandler) GetPackage(c *gin.Context) {
	pkg, err := h.packages.FetchByID(upstreamCtx(c), c.Param("package_id"))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"package": pkg})
}
