package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"exercise-tracker/internal/cache"
	"exercise-tracker/internal/models"
	"exercise-tracker/internal/services"
	"exercise-tracker/internal/store"
	"exercise-tracker/internal/web"
)

type Handler struct {
	userService     *services.UserService
	exerciseService *services.ExerciseService
	store           store.Store
	userCache       cache.UserCache
	logger          *zap.Logger
}

func NewHandler(
	userService *services.UserService,
	exerciseService *services.ExerciseService,
	st store.Store,
	userCache cache.UserCache,
	logger *zap.Logger,
) *Handler {
	if userCache == nil {
		userCache = cache.Nop{}
	}
	return &Handler{
		userService:     userService,
		exerciseService: exerciseService,
		store:           st,
		userCache:       userCache,
		logger:          logger,
	}
}

// RegisterRoutes mounts the API on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/health", h.HealthCheck)

	api := e.Group("/api")
	api.POST("/users", h.CreateUser)
	api.GET("/users", h.ListUsers)
	api.POST("/users/:id/exercises", h.AddExercise)
	api.GET("/users/:id/logs", h.GetLogs)
}

// flexString accepts a JSON string or number, and plain form values.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f *flexString) UnmarshalParam(param string) error {
	*f = flexString(param)
	return nil
}

type createUserRequest struct {
	Username string `json:"username" form:"username"`
}

type addExerciseRequest struct {
	Description string     `json:"description" form:"description"`
	Duration    flexString `json:"duration" form:"duration"`
	Date        flexString `json:"date" form:"date"`
}

func (h *Handler) Index(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, web.IndexHTML)
}

func (h *Handler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Store:     "healthy",
		Cache:     "healthy",
	}

	if err := h.store.Ping(ctx); err != nil {
		response.Store = "unhealthy"
		response.Status = "degraded"
	}
	if err := h.userCache.Ping(ctx); err != nil {
		response.Cache = "unhealthy"
		response.Status = "degraded"
	}

	return c.JSON(http.StatusOK, response)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	user, err := h.userService.CreateUser(c.Request().Context(), req.Username)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) AddExercise(c echo.Context) error {
	var req addExerciseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	logged, err := h.exerciseService.AddExercise(c.Request().Context(), c.Param("id"), services.AddExerciseInput{
		Description: req.Description,
		Duration:    string(req.Duration),
		Date:        string(req.Date),
	})
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, logged)
}

func (h *Handler) GetLogs(c echo.Context) error {
	result, err := h.exerciseService.GetLogs(c.Request().Context(), c.Param("id"), services.LogFilter{
		From:  c.QueryParam("from"),
		To:    c.QueryParam("to"),
		Limit: c.QueryParam("limit"),
	})
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// toHTTPError maps service errors to status codes. Anything unexpected is
// logged and reported without detail.
func (h *Handler) toHTTPError(c echo.Context, err error) error {
	var (
		verr *services.ValidationError
		nf   *services.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Message)
	case errors.As(err, &nf):
		return echo.NewHTTPError(http.StatusNotFound, nf.Error())
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Internal != nil {
				logger.Debug("http error", zap.Error(he.Internal))
			}
			if code < http.StatusInternalServerError {
				message = httpErrorMessage(he)
			}
		} else {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, map[string]string{"error": message})
		}
		if writeErr != nil {
			logger.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	msg := fmt.Sprint(he.Message)
	if strings.TrimSpace(msg) == "" {
		return http.StatusText(he.Code)
	}
	return msg
}
