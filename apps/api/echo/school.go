package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shafisadique/school-project-sub003/core/auth"
	"github.com/shafisadique/school-project-sub003/core/school"
)

type schoolApi struct {
	domain  *auth.Domain
	svc     *school.Service
	metrics *Metrics
}

func registerSchoolAPI(g *echo.Group, api *schoolApi) {
	sg := g.Group("/schools", authMiddlewares(api.domain, api.metrics)...)
	sg.GET("/current/features/:feature", api.currentFeature, rolesMiddleware(auth.TenantRoles...))
}

type FeatureResponse struct {
	Feature string `json:"feature"`
	Enabled bool   `json:"enabled"`
}

func (api *schoolApi) currentFeature(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}
	feature := ctx.Param("feature")

	enabled, err := api.svc.HasFeature(ctx.Request().Context(), claims.TenantID, feature, auth.Now())
	if err != nil {
		return errors.Wrap(err, "checking school feature")
	}
	return ctx.JSON(http.StatusOK, FeatureResponse{Feature: feature, Enabled: enabled})
}
