package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ironloft/gymapp/internal/logging"
	authmw "github.com/ironloft/gymapp/internal/middleware/auth"
	"github.com/ironloft/gymapp/internal/repo"
	"github.com/ironloft/gymapp/internal/service"
	"github.com/ironloft/gymapp/internal/service/search"
	"github.com/ironloft/gymapp/internal/transport"
	"github.com/ironloft/gymapp/internal/util"
)

type ClassHTTP struct {
	Svc     *service.ClassService
	ES      *elasticsearch.Client
	ESIndex string
}

func classID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid class id")
	}
	return uint(id), nil
}

func (h *ClassHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "class_list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		l.Error("class_list_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list classes")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ClassHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "class_get")

	id, err := classID(c)
	if err != nil {
		return err
	}

	class, err := h.Svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "class not found")
		}
		l.Error("class_get_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get class")
	}
	return c.JSON(http.StatusOK, class)
}

func (h *ClassHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "class_create")

	var req transport.ClassRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("class_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	class, err := h.Svc.Create(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("class_create_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create class")
	}

	l.Info("class_create_success", "classID", class.ID)
	return c.JSON(http.StatusCreated, class)
}

func (h *ClassHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "class_update")

	id, err := classID(c)
	if err != nil {
		return err
	}

	var req transport.ClassRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("class_update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	class, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "class not found")
		}
		l.Error("class_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update class")
	}

	l.Info("class_update_success", "classID", class.ID)
	return c.JSON(http.StatusOK, class)
}

func (h *ClassHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "class_delete")

	id, err := classID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "class not found")
		}
		l.Error("class_delete_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete class")
	}

	l.Info("class_delete_success", "classID", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ClassHTTP) RegisterAttendance(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "class_register")

	id, err := classID(c)
	if err != nil {
		return err
	}
	userID, ok := authmw.CallerID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	att, err := h.Svc.RegisterAttendance(ctx, userID, id)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "class not found")
		case errors.Is(err, repo.ErrAlreadyRegistered):
			return echo.NewHTTPError(http.StatusConflict, "already registered for this class")
		case errors.Is(err, repo.ErrClassFull):
			return echo.NewHTTPError(http.StatusConflict, "class is full")
		}
		l.Error("class_register_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot register for class")
	}

	l.Info("class_register_success", "classID", id, "userID", userID)
	return c.JSON(http.StatusCreated, att)
}

func (h *ClassHTTP) CheckIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "class_checkin")

	id, err := classID(c)
	if err != nil {
		return err
	}
	userID, ok := authmw.CallerID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	if err := h.Svc.CheckIn(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "not registered for this class")
		}
		l.Error("class_checkin_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot check in")
	}

	l.Info("class_checkin_success", "classID", id, "userID", userID)
	return c.JSON(http.StatusOK, echo.Map{"message": "checked in"})
}

func (h *ClassHTTP) Users(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "class_users")

	id, err := classID(c)
	if err != nil {
		return err
	}

	users, err := h.Svc.Users(ctx, id)
	if err != nil {
		l.Error("class_users_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list class users")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": users})
}

func (h *ClassHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "class_search")

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query")
	}
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, classes, err := search.Search(ctx, h.ES, h.ESIndex, q, from, limit)
	if err != nil {
		l.Error("class_search_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "classes": classes})
}
