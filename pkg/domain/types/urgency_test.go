package types_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

func TestUrgencyFromDueDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tests := []struct {
		name string
		due  *time.Time
		want types.Urgency
	}{
		{"no due date", nil, types.UrgencyNormal},
		{"overdue", at(-24 * time.Hour), types.UrgencyUrgent},
		{"due tomorrow", at(24 * time.Hour), types.UrgencyUrgent},
		{"due in exactly two days", at(48 * time.Hour), types.UrgencyUrgent},
		{"due in three days", at(72 * time.Hour), types.UrgencyHigh},
		{"due in exactly seven days", at(7 * 24 * time.Hour), types.UrgencyHigh},
		{"due in eight days", at(8 * 24 * time.Hour), types.UrgencyNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, types.UrgencyFromDueDate(tt.due, now)).Equal(tt.want)
		})
	}
}
