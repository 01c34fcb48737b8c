package model

import "time"

// Subscriber is an endpoint registered to receive notifications for a topic.
// The URL is its identity within a topic.
type Subscriber struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Product event statuses.
const (
	StatusCreated   = "CREATED"
	StatusDeleted   = "DELETED"
	StatusPromotion = "PROMOTION"
)

// ProductEvent is the payload from internal business systems describing a
// change to a product.
type ProductEvent struct {
	ProductType  string `json:"product_type"`
	ProductID    string `json:"product_id"`
	ProductTitle string `json:"product_title"`
	ProductURL   string `json:"product_url"`
	Status       string `json:"status"`
}

// Notification is the body POSTed to each subscriber.
type Notification struct {
	ID             string    `json:"id"`
	ProductType    string    `json:"product_type"`
	ProductID      string    `json:"product_id"`
	ProductTitle   string    `json:"product_title,omitempty"`
	ProductURL     string    `json:"product_url,omitempty"`
	Status         string    `json:"status"`
	SubscriberName string    `json:"subscriber_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// For returns a copy of the notification addressed to s.
func (n Notification) For(s Subscriber) Notification {
	n.SubscriberName = s.Name
	return n
}

// DeliveryResult records the outcome of one outbound call.
type DeliveryResult struct {
	Subscriber Subscriber    `json:"subscriber"`
	StatusCode int           `json:"status_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// OK reports whether the delivery succeeded.
func (r DeliveryResult) OK() bool {
	return r.Error == "" && r.StatusCode >= 200 && r.StatusCode < 300
}

// Report aggregates the delivery results of one publish call.
type Report struct {
	NotificationID string           `json:"notification_id"`
	Topic          string           `json:"topic"`
	Attempted      int              `json:"attempted"`
	Succeeded      int              `json:"succeeded"`
	Failed         int              `json:"failed"`
	Results        []DeliveryResult `json:"results"`
}

// Add appends a result and updates the counters.
func (r *Report) Add(res DeliveryResult) {
	r.Attempted++
	if res.OK() {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.Results = append(r.Results, res)
}

// Task wraps a queued publish request. Its ID becomes the notification ID.
type Task struct {
	ID        string       `json:"id"`
	Topic     string       `json:"topic"`
	Event     ProductEvent `json:"event"`
	CreatedAt time.Time    `json:"created_at"`
}
