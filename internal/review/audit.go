package review

import (
	"fmt"
	"strings"
	"time"

	"request-review-service/internal/model"
)

// auditedFields are the item fields the modification tracker watches.
var auditedFields = []string{"name", "source_url", "description", "quantity", "price", "color", "size"}

// DiffAgainstBaseline compares every working copy against the immutable
// baseline and, if anything differs, produces exactly one ModificationRecord
// covering all changed items. Returns nil when nothing changed.
//
// The record carries the previous and new snapshots of the changed items plus
// a human-readable summary naming each changed field per item; seq is
// assigned by the caller when the record is appended to the history.
func DiffAgainstBaseline(s *Session, adminName string, now time.Time) *model.ModificationRecord {
	var (
		previous []model.Item
		current  []model.Item
		parts    []string
	)
	for _, id := range s.order {
		base := s.baseline[id]
		work := s.working[id]
		changed := changedFields(base, work)
		if len(changed) == 0 {
			continue
		}
		previous = append(previous, base)
		current = append(current, work)
		parts = append(parts, fmt.Sprintf("item %q: %s", base.Name, strings.Join(changed, ", ")))
	}
	if len(previous) == 0 {
		return nil
	}
	return &model.ModificationRecord{
		Timestamp:      now,
		AdminName:      adminName,
		PreviousValues: previous,
		NewValues:      current,
		Summary:        strings.Join(parts, "; "),
	}
}

func changedFields(a, b model.Item) []string {
	var changed []string
	for _, f := range auditedFields {
		if itemField(a, f) != itemField(b, f) {
			changed = append(changed, f)
		}
	}
	return changed
}

func itemField(it model.Item, field string) string {
	switch field {
	case "name":
		return it.Name
	case "source_url":
		return it.SourceURL
	case "description":
		return it.Description
	case "quantity":
		return fmt.Sprintf("%d", it.Quantity)
	case "price":
		return fmt.Sprintf("%v", it.Price)
	case "color":
		return it.Color
	case "size":
		return it.Size
	}
	return ""
}
