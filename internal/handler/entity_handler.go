package handler

import (
	"errors"
	"net/http"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/crud"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/entity"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/mirror"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/repository"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/tenant"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListEntityTypes returns the registered entity specs
func (h *Handler) ListEntityTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cfg.Entities.All())
}

// collection builds a fresh working set of the entity named in the path for
// the calling user. Callers without a resolved tenant are refused; entity
// rows are never read or written unscoped over HTTP. With load the list is
// fetched once, otherwise the collection starts empty for a single write.
func (h *Handler) collection(c echo.Context, load bool) (*crud.Collection, error) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, unauthorized(c)
	}

	spec, err := h.cfg.Entities.Lookup(c.Param("entity"))
	if err != nil {
		logger.FromContext(c).Warn("Unknown entity", zap.String("entity", c.Param("entity")))
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "unknown entity"})
	}

	log := logger.FromContext(c)
	resolver := h.cfg.Sessions.Resolver(userID)
	if _, err := resolver.Resolve(c.Request().Context()); err != nil {
		if errors.Is(err, tenant.ErrNoTenant) {
			log.Warn("Entity access without tenant", zap.String("user_id", userID))
			return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "no tenant for user"})
		}
		log.Error("Failed to resolve tenant", zap.String("user_id", userID), zap.Error(err))
		return nil, c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant unavailable"})
	}

	deps := crud.Deps{
		Remote: h.cfg.Remote(spec),
		Tenant: resolver,
		Policy: h.cfg.Policy,
		Log:    log,
	}
	if h.cfg.MirrorStore != nil {
		deps.Mirror = mirror.NewRepository(h.cfg.MirrorStore, spec, h.cfg.MirrorPrefix, log)
	}
	if !load {
		return crud.Open(spec, deps), nil
	}
	return crud.New(c.Request().Context(), spec, deps), nil
}

// queryErrorStatus maps a repository error to an HTTP status and message
func queryErrorStatus(err error) (int, string) {
	switch repository.KindOf(err) {
	case repository.KindNotFound:
		return http.StatusNotFound, "record not found"
	case repository.KindUnavailable:
		return http.StatusServiceUnavailable, "backend unavailable"
	case repository.KindRejected:
		return http.StatusUnprocessableEntity, "request rejected by backend"
	}
	return http.StatusInternalServerError, "internal error"
}

func respondQueryError(c echo.Context, msg string, err error) error {
	status, text := queryErrorStatus(err)
	logger.FromContext(c).Error(msg, zap.Error(err), zap.Int("status", status))
	return c.JSON(status, echo.Map{"error": text})
}

// bindRecord decodes the JSON body only; path params must not leak into the row
func bindRecord(c echo.Context) (entity.Record, error) {
	var payload entity.Record
	if err := (&echo.DefaultBinder{}).BindBody(c, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.New("empty body")
	}
	return payload, nil
}

// ListEntities returns the caller's rows of an entity, newest first
func (h *Handler) ListEntities(c echo.Context) error {
	col, err := h.collection(c, true)
	if col == nil {
		return err
	}
	if err := col.Err(); err != nil {
		return respondQueryError(c, "Failed to list entities", err)
	}

	items := col.Items()
	logger.FromContext(c).Info("Entities listed",
		zap.String("entity", c.Param("entity")),
		zap.Int("count", len(items)),
		zap.Bool("offline", col.Offline()))
	return c.JSON(http.StatusOK, echo.Map{
		"items":   items,
		"offline": col.Offline(),
	})
}

// CreateEntity stores a new row
func (h *Handler) CreateEntity(c echo.Context) error {
	payload, err := bindRecord(c)
	if err != nil {
		logger.FromContext(c).Error("Failed to parse entity", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	col, err := h.collection(c, false)
	if col == nil {
		return err
	}
	created, err := col.Create(c.Request().Context(), payload)
	if err != nil {
		return respondQueryError(c, "Failed to create entity", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"item":    created,
		"offline": col.Offline(),
	})
}

// UpdateEntity patches the row with the id in the path
func (h *Handler) UpdateEntity(c echo.Context) error {
	payload, err := bindRecord(c)
	if err != nil {
		logger.FromContext(c).Error("Failed to parse entity", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	col, err := h.collection(c, false)
	if col == nil {
		return err
	}
	updated, err := col.Update(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return respondQueryError(c, "Failed to update entity", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item":    updated,
		"offline": col.Offline(),
	})
}

// DeleteEntity removes the row with the id in the path. The caller must
// confirm with ?confirm=true.
func (h *Handler) DeleteEntity(c echo.Context) error {
	if c.QueryParam("confirm") != "true" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "deletion must be confirmed with confirm=true"})
	}

	col, err := h.collection(c, false)
	if col == nil {
		return err
	}
	if err := col.Remove(c.Request().Context(), c.Param("id")); err != nil {
		return respondQueryError(c, "Failed to delete entity", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "deleted",
		"offline": col.Offline(),
	})
}
