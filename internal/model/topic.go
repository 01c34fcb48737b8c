package model

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidTopic is returned for empty topic names.
var ErrInvalidTopic = errors.New("invalid topic")

var topicCaser = cases.Upper(language.Und)

// NormalizeTopic trims and upper-cases a topic so that "book" and " BOOK "
// address the same subscriber set.
func NormalizeTopic(topic string) (string, error) {
	t := strings.TrimSpace(topic)
	if t == "" {
		return "", ErrInvalidTopic
	}
	return topicCaser.String(t), nil
}
