package conversation

import "fmt"

const (
	msgAskMonthYear     = "Hi! It's time to send the billing authorization. Month and year? (e.g. Gennaio-2024)"
	msgBadFormat        = "Invalid format. Use Month-Year (e.g. Gennaio-2024)"
	msgBadMonth         = "Invalid month. Use Month-Year (e.g. Gennaio-2024)"
	msgBadYear          = "Invalid year. Use Month-Year (e.g. Gennaio-2024)"
	msgYearOutOfRange   = "Invalid year (2020-2050). Use Month-Year"
	msgNoActiveProjects = "No active projects in the system."
	msgBadDays          = "Enter a valid number (e.g. 20 or 20,5):"
	msgDaysOutOfRange   = "Invalid number (0-31):"
	msgNothingEntered   = "No days entered. Cancelled."
	msgReviewChoice     = "1 = send, 2 = cancel"
	msgEmailSent        = "Email sent!"
	msgCancelled        = "Cancelled."
	msgTypeStart        = "Type 'start' for a new request"
	msgInternalError    = "Internal error: project not found. Please try again."
	msgDeliveryFailed   = "Sending failed. Retry with 1"
)

func askDays(projectName string) string {
	return fmt.Sprintf("Days for %s?", projectName)
}
