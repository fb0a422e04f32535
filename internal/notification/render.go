package notification

import (
	"fmt"
	"strings"
)

// Render 生成纯文本邮件的主题与正文
func Render(ev Event) (subject, body string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", nameOr(ev.RecipientName))

	slot := fmt.Sprintf("%s on %s, %s-%s", ev.ResourceName, ev.Date, ev.StartTime, ev.EndTime)
	switch ev.Kind {
	case KindWelcome:
		subject = "Welcome to Campus Resource Booking"
		b.WriteString("Your account has been created. You can now browse and book campus resources.\n")
	case KindBookingConfirmed:
		subject = "Booking Confirmed - " + ev.ResourceName
		fmt.Fprintf(&b, "Your booking for %s is confirmed.\n", slot)
	case KindBookingCancelled:
		subject = "Booking Cancelled - " + ev.ResourceName
		fmt.Fprintf(&b, "Your booking for %s has been cancelled.\n", slot)
	case KindMaintenanceCancelled:
		subject = "Booking Cancelled Due to Maintenance - " + ev.ResourceName
		fmt.Fprintf(&b, "Your booking for %s has been cancelled because the resource is under maintenance.\n", slot)
	case KindBookingCompleted:
		subject = "Booking Completed - " + ev.ResourceName
		fmt.Fprintf(&b, "Your booking for %s is marked as completed. You can now leave a review.\n", slot)
	case KindBookingNoShow:
		subject = "Missed Booking - " + ev.ResourceName
		fmt.Fprintf(&b, "Your booking for %s was marked as a no-show.\n", slot)
	default:
		subject = "Campus Resource Booking Notification"
	}
	if ev.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", ev.Reason)
	}
	if ev.BookingID != "" {
		fmt.Fprintf(&b, "Booking ID: %s\n", ev.BookingID)
	}
	b.WriteString("\nCampus Resource Booking\n")
	return subject, b.String()
}

func nameOr(name string) string {
	if name == "" {
		return "user"
	}
	return name
}
