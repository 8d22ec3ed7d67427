package planner

import (
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
)

// DefaultTopic is used when no schedule slot applies.
const DefaultTopic = "health"

// Slot starts Topic at FromHour (KST) and lasts until the next slot.
type Slot struct {
	FromHour int
	Topic    string
}

// Schedule maps the hour of day to a topic. Slot order does not matter.
type Schedule []Slot

// TopicFor returns the topic of the latest-starting slot at or before now's
// KST hour. Hours before every slot wrap to the latest slot of the day.
func (s Schedule) TopicFor(now time.Time) string {
	if len(s) == 0 {
		return DefaultTopic
	}
	hour := now.In(domain.KST).Hour()

	var current, latest *Slot
	for i := range s {
		slot := &s[i]
		if latest == nil || slot.FromHour >= latest.FromHour {
			latest = slot
		}
		if slot.FromHour <= hour && (current == nil || slot.FromHour >= current.FromHour) {
			current = slot
		}
	}
	if current == nil {
		current = latest
	}
	return current.Topic
}
