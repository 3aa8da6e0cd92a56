package jobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hrperf/internal/domain/notifications"
	"hrperf/internal/domain/schedule"
	"hrperf/internal/requestctx"
)

type TimelineSource interface {
	Timeline(ctx context.Context, year int, today time.Time, filter schedule.Filter) (schedule.Timeline, error)
}

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

// Reminders tells each manager which of their reports have milestones that
// are overdue or due soon.
type Reminders struct {
	timeline TimelineSource
	notify   Notifier
}

func NewReminders(timeline TimelineSource, notify Notifier) *Reminders {
	return &Reminders{timeline: timeline, notify: notify}
}

type ReminderSummary struct {
	Overdue  int `json:"overdue"`
	DueSoon  int `json:"dueSoon"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
	// Unmanaged counts flagged cells whose employee has no manager account.
	Unmanaged int `json:"unmanaged"`
}

type managerDigest struct {
	overdue []string
	dueSoon []string
}

func (r *Reminders) Run(ctx context.Context, today time.Time) (ReminderSummary, error) {
	tl, err := r.timeline.Timeline(ctx, today.Year(), today, schedule.Filter{})
	if err != nil {
		return ReminderSummary{}, err
	}

	var summary ReminderSummary
	digests := map[string]*managerDigest{}
	for _, g := range tl.Groups {
		for _, row := range g.Rows {
			for _, c := range row.Cells {
				if c.Status != schedule.StatusOverdue && c.Status != schedule.StatusDueSoon {
					continue
				}
				if c.Status == schedule.StatusOverdue {
					summary.Overdue++
				} else {
					summary.DueSoon++
				}
				manager := row.Employee.ManagerUserID
				if manager == "" {
					summary.Unmanaged++
					continue
				}
				d, ok := digests[manager]
				if !ok {
					d = &managerDigest{}
					digests[manager] = d
				}
				line := fmt.Sprintf("%s: %s (%s)", row.Employee.Name, c.TemplateName, c.Period)
				if c.Status == schedule.StatusOverdue {
					d.overdue = append(d.overdue, line)
				} else {
					d.dueSoon = append(d.dueSoon, line)
				}
			}
		}
	}

	managers := make([]string, 0, len(digests))
	for id := range digests {
		managers = append(managers, id)
	}
	sort.Strings(managers)

	for _, id := range managers {
		d := digests[id]
		if len(d.overdue) > 0 {
			r.send(ctx, &summary, id, notifications.TypeMilestoneOverdue,
				fmt.Sprintf("%d evaluaciones vencidas", len(d.overdue)), d.overdue)
		}
		if len(d.dueSoon) > 0 {
			r.send(ctx, &summary, id, notifications.TypeMilestoneDueSoon,
				fmt.Sprintf("%d evaluaciones por vencer", len(d.dueSoon)), d.dueSoon)
		}
	}
	return summary, nil
}

func (r *Reminders) send(ctx context.Context, summary *ReminderSummary, userID, ntype, title string, lines []string) {
	if err := r.notify.Create(ctx, userID, ntype, title, strings.Join(lines, "\n")); err != nil {
		requestctx.Logger(ctx).Warn("reminder notification failed", "userId", userID, "type", ntype, "err", err)
		summary.Failed++
		return
	}
	summary.Notified++
}
