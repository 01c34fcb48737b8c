// Package notification turns product events into notifications.
package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"notification-hub/internal/model"
)

// ErrMalformedEvent is returned when an event cannot be turned into a notification.
var ErrMalformedEvent = errors.New("malformed event")

// Builder constructs notifications. The zero value is ready to use.
type Builder struct {
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
	// NewID overrides ID generation; nil means a random UUID.
	NewID func() string
}

// Build validates event and projects it into a Notification.
func (b Builder) Build(event model.ProductEvent) (model.Notification, error) {
	productType, err := model.NormalizeTopic(event.ProductType)
	if err != nil {
		return model.Notification{}, fmt.Errorf("%w: product_type is required", ErrMalformedEvent)
	}
	productID := strings.TrimSpace(event.ProductID)
	if productID == "" {
		return model.Notification{}, fmt.Errorf("%w: product_id is required", ErrMalformedEvent)
	}
	status, err := normalizeStatus(event.Status)
	if err != nil {
		return model.Notification{}, err
	}

	return model.Notification{
		ID:           b.id(),
		ProductType:  productType,
		ProductID:    productID,
		ProductTitle: strings.TrimSpace(event.ProductTitle),
		ProductURL:   strings.TrimSpace(event.ProductURL),
		Status:       status,
		CreatedAt:    b.now().UTC(),
	}, nil
}

// Build uses a zero Builder.
func Build(event model.ProductEvent) (model.Notification, error) {
	return Builder{}.Build(event)
}

func normalizeStatus(status string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(status))
	switch s {
	case model.StatusCreated, model.StatusDeleted, model.StatusPromotion:
		return s, nil
	case "":
		return "", fmt.Errorf("%w: status is required", ErrMalformedEvent)
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrMalformedEvent, status)
	}
}

func (b Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b Builder) id() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.NewString()
}
