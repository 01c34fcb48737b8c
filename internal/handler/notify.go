package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"notification-hub/internal/logging"
	"notification-hub/internal/model"
	"notification-hub/internal/notification"
	"notification-hub/internal/queue"
	"notification-hub/internal/registry"
	"notification-hub/internal/worker"
)

type Handler struct {
	registry  registry.Registry
	publisher worker.Publisher
	queue     queue.Queue
	builder   notification.Builder
	logger    *slog.Logger
}

func NewHandler(reg registry.Registry, pub worker.Publisher, q queue.Queue, logger *slog.Logger) *Handler {
	return &Handler{
		registry:  reg,
		publisher: pub,
		queue:     q,
		logger:    logging.Component(logger, "http"),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/topics", h.Topics)
	e.GET("/subscribers/:topic", h.ListSubscribers)
	e.POST("/subscribe/:topic", h.Subscribe)
	e.DELETE("/unsubscribe/:topic", h.Unsubscribe)
	e.POST("/publish", h.Publish)
	e.POST("/notify", h.Notify)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Subscribe(c echo.Context) error {
	var sub model.Subscriber
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	topic := c.Param("topic")
	if err := h.registry.Subscribe(c.Request().Context(), topic, sub); err != nil {
		return h.registryError(err)
	}
	sub.URL = strings.TrimSpace(sub.URL)
	sub.Name = strings.TrimSpace(sub.Name)
	h.logger.Info("subscriber added", logging.FieldTopic, topic, logging.FieldSubscriberURL, sub.URL)
	return c.JSON(http.StatusCreated, sub)
}

func (h *Handler) Unsubscribe(c echo.Context) error {
	url := strings.TrimSpace(c.QueryParam("url"))
	if url == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url query parameter is required")
	}

	topic := c.Param("topic")
	if err := h.registry.Unsubscribe(c.Request().Context(), topic, url); err != nil {
		return h.registryError(err)
	}
	h.logger.Info("subscriber removed", logging.FieldTopic, topic, logging.FieldSubscriberURL, url)
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) ListSubscribers(c echo.Context) error {
	subs, err := h.registry.List(c.Request().Context(), c.Param("topic"))
	if err != nil {
		return h.registryError(err)
	}
	return c.JSON(http.StatusOK, subs)
}

func (h *Handler) Topics(c echo.Context) error {
	topics, err := h.registry.Topics(c.Request().Context())
	if err != nil {
		return h.registryError(err)
	}
	return c.JSON(http.StatusOK, topics)
}

// Publish builds a notification from the event and delivers it before
// responding with the delivery report.
func (h *Handler) Publish(c echo.Context) error {
	var event model.ProductEvent
	if err := c.Bind(&event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	n, err := h.builder.Build(event)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	report, err := h.publisher.Publish(c.Request().Context(), n.ProductType, n)
	if err != nil {
		h.logger.Error("publish failed", logging.FieldNotificationID, n.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "publish failed")
	}
	return c.JSON(http.StatusOK, report)
}

// Notify queues the event for the worker pool and returns 202 immediately.
func (h *Handler) Notify(c echo.Context) error {
	var event model.ProductEvent
	if err := c.Bind(&event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	// Validate up front so callers learn about bad input synchronously.
	n, err := h.builder.Build(event)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// The task carries the notification id so the caller can match it
	// against the delivery report.
	task := &model.Task{
		ID:        n.ID,
		Topic:     n.ProductType,
		Event:     event,
		CreatedAt: n.CreatedAt,
	}

	if err := h.queue.Enqueue(c.Request().Context(), task); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			// Backpressure the caller
			return echo.NewHTTPError(http.StatusServiceUnavailable, "System busy, please try again later")
		}
		h.logger.Error("enqueue failed", logging.FieldTaskID, task.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "enqueue failed")
	}

	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted", "task_id": task.ID})
}

func (h *Handler) registryError(err error) error {
	switch {
	case errors.Is(err, registry.ErrDuplicateSubscriber):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, registry.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, registry.ErrInvalidSubscriber), errors.Is(err, model.ErrInvalidTopic):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("registry error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "registry unavailable")
	}
}
