package support

import (
	"fmt"
	"strings"

	"github.com/kajal19803/dairyfrontend/internal/domain"
)

const (
	msgServerError      = "❌ Server error. Try later."
	msgDeclined         = "Alright! Let me know if you need anything else."
	msgNoRecentOrders   = "I couldn't find any recent orders on your account."
	msgInvalidProducts  = "Invalid product selection. Please try again."
	msgInvalidIssueType = "Invalid selection. Please enter a number from 1 to 6."
	msgDescribe         = "Please describe your issue."
	msgAskImage         = "Do you have any screenshot or image related to this issue? (yes/no)"
	msgUploadImage      = "Please upload your screenshot or image."
	msgAnyOther         = "Do you have any other issue to report? (yes/no)"
	msgTicketFailed     = "❌ Failed to raise ticket. Try again later."
)

var issueTypeMenu = buildIssueTypeMenu()

func buildIssueTypeMenu() string {
	var b strings.Builder
	b.WriteString("Please select your issue type:")
	for i, t := range domain.IssueTypes {
		fmt.Fprintf(&b, "\n%d. %s", i+1, t)
	}
	return b.String()
}

func confirmRaisePrompt(category domain.IssueType) string {
	if category == "" {
		return "Would you like to raise a support ticket? (yes/no)"
	}
	return fmt.Sprintf("Would you like to raise a support ticket for this %q issue? (yes/no)", string(category))
}

func recentOrdersPrompt(orders []domain.RecentOrder) string {
	var b strings.Builder
	b.WriteString("Here are your recent orders. Please enter the number of the order you want to raise an issue for:")
	for i, o := range orders {
		fmt.Fprintf(&b, "\n%d. 📦 Order ID: %s 🛒 Products: %s", i+1, o.OrderID, strings.Join(o.ProductNames, ", "))
	}
	return b.String()
}

func invalidOrderPrompt(count int) string {
	return fmt.Sprintf("Invalid selection. Please enter a number between 1 and %d.", count)
}

func productsPrompt(products []string) string {
	var b strings.Builder
	b.WriteString("Which product(s) do you want to raise issue for?")
	for i, p := range products {
		fmt.Fprintf(&b, "\n%d. %s", i+1, p)
	}
	b.WriteString("\nPlease enter numbers separated by commas (e.g., 1,3)")
	return b.String()
}

func ticketRaised(ticketNumber string) string {
	return "✅ Ticket raised! Ticket ID: " + ticketNumber
}
