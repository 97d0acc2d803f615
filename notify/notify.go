// Package notify builds reminder emails and hands them to the
// notifications queue for delivery by an external sender.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/timestats"
)

// Envelope is the queue message format the mail sender consumes.
type Envelope struct {
	Address  string `json:"address"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"htmlBody"`
}

// Queue is the enqueue side of the notifications queue.
type Queue interface {
	EnqueueNotification(ctx context.Context, message string) error
}

// Notifier serializes envelopes onto the queue.
type Notifier struct {
	queue Queue
	log   *log.Logger
	// DashboardURL is linked from every reminder. Optional.
	DashboardURL string
}

func NewNotifier(queue Queue, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Notifier{queue: queue, log: logger}
}

// Send enqueues one envelope. The sender process drains the queue.
func (n *Notifier) Send(ctx context.Context, env Envelope) error {
	if env.Address == "" {
		return fmt.Errorf("notification has no recipient address")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := n.queue.EnqueueNotification(ctx, string(payload)); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	n.log.Infof("queued notification %q for %s", env.Subject, env.Address)
	return nil
}

// SendWeeklyReview enqueues the Sunday-evening review summary for one company.
func (n *Notifier) SendWeeklyReview(ctx context.Context, address, companyName string, analytics timestats.WeeklyAnalytics) error {
	return n.Send(ctx, n.WeeklyReviewEmail(address, companyName, analytics))
}

// SendTuesdayMagicReminder enqueues the Tuesday-morning deep-work reminder.
func (n *Notifier) SendTuesdayMagicReminder(ctx context.Context, address string) error {
	return n.Send(ctx, n.TuesdayMagicEmail(address))
}

// WeeklyReviewEmail renders the weekly productivity summary.
func (n *Notifier) WeeklyReviewEmail(address, companyName string, analytics timestats.WeeklyAnalytics) Envelope {
	var b strings.Builder
	b.WriteString("<h3>Weekly Productivity Review</h3>\n")
	fmt.Fprintf(&b, "<p>Here's your productivity summary for %s:</p>\n", companyName)

	b.WriteString("<h4>Weekly Totals:</h4>\n<ul>\n")
	fmt.Fprintf(&b, "<li><strong>Hours Worked:</strong> %.1fh</li>\n", analytics.WeeklyTotals.ActualTime)
	fmt.Fprintf(&b, "<li><strong>Tasks Completed:</strong> %d</li>\n", analytics.WeeklyTotals.TasksCompleted)
	fmt.Fprintf(&b, "<li><strong>Average Efficiency:</strong> %d%%</li>\n", analytics.WeeklyTotals.AvgEfficiency)
	fmt.Fprintf(&b, "<li><strong>MVOT Cost:</strong> ₹%.0f</li>\n", analytics.WeeklyTotals.MVOTCost)
	b.WriteString("</ul>\n")

	if len(analytics.Insights) > 0 {
		b.WriteString("<h4>Key Insights:</h4>\n<ul>\n")
		for _, insight := range analytics.Insights {
			fmt.Fprintf(&b, "<li>%s: %s</li>\n", insight.Title, insight.Description)
		}
		b.WriteString("</ul>\n")
	}

	b.WriteString("<h4>Next Week Planning:</h4>\n")
	b.WriteString("<p>Use this Sunday evening to:</p>\n<ul>\n")
	b.WriteString("<li>Review completed tasks and achievements</li>\n")
	b.WriteString("<li>Plan next week's priorities</li>\n")
	b.WriteString("<li>Schedule Tuesday Magic time block</li>\n")
	b.WriteString("<li>Batch similar tasks together</li>\n")
	b.WriteString("</ul>\n")
	n.writeDashboardLink(&b)

	return Envelope{
		Address:  address,
		Subject:  "Weekly Review - " + companyName,
		HTMLBody: b.String(),
	}
}

// TuesdayMagicEmail renders the reminder for the weekly auto-pilot block.
func (n *Notifier) TuesdayMagicEmail(address string) Envelope {
	var b strings.Builder
	b.WriteString("<h3>It's Tuesday Magic Time!</h3>\n")
	b.WriteString("<p>This is your dedicated 4-hour block (8 AM - 12 PM) to work on auto-pilot systems that will create freedom for the rest of your life.</p>\n")

	b.WriteString("<h4>Today's Focus Areas:</h4>\n<ul>\n")
	b.WriteString("<li>Process automation</li>\n")
	b.WriteString("<li>System documentation</li>\n")
	b.WriteString("<li>Business development strategies</li>\n")
	b.WriteString("<li>Innovation and improvement projects</li>\n")
	b.WriteString("</ul>\n")

	b.WriteString("<h4>Tuesday Magic Rules:</h4>\n<ul>\n")
	b.WriteString("<li>Put your phone on Do Not Disturb</li>\n")
	b.WriteString("<li>Work from a coffee shop if possible</li>\n")
	b.WriteString("<li>Focus only on auto-pilot systems</li>\n")
	b.WriteString("<li>Dedicate the full 4 hours</li>\n")
	b.WriteString("</ul>\n")

	b.WriteString("<p><strong>Remember:</strong> What you build today will free up your time for the rest of your life!</p>\n")
	n.writeDashboardLink(&b)

	return Envelope{
		Address:  address,
		Subject:  "Tuesday Magic Time - Build Your Auto-Pilot Systems!",
		HTMLBody: b.String(),
	}
}

func (n *Notifier) writeDashboardLink(b *strings.Builder) {
	if n.DashboardURL == "" {
		return
	}
	fmt.Fprintf(b, "<p><a href=%q>Open Dashboard</a></p>\n", n.DashboardURL)
}
