package domain

type IssueType string

const (
	IssueOrder   IssueType = "Order Issue"
	IssuePayment IssueType = "Payment & Refunds"
	IssueProduct IssueType = "Product Issue"
	IssueAccount IssueType = "Account & Login"
	IssueWebsite IssueType = "Website Bug/Technical Problem"
	IssueRequest IssueType = "Request Related"
)

// IssueTypes is the fixed menu order; menu numbers are index+1.
var IssueTypes = []IssueType{
	IssueOrder,
	IssuePayment,
	IssueProduct,
	IssueAccount,
	IssueWebsite,
	IssueRequest,
}

// IssueTypeAt maps a 1-based menu number to its issue type.
func IssueTypeAt(n int) (IssueType, bool) {
	if n < 1 || n > len(IssueTypes) {
		return "", false
	}
	return IssueTypes[n-1], true
}

// Image is a single attachment picked by the user.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TicketDraft is the not-yet-submitted support ticket built up over a
// conversation.
type TicketDraft struct {
	IssueType    IssueType
	Message      string
	Image        *Image
	OrderID      string
	ProductNames []string
}

type RecentOrder struct {
	OrderID      string   `json:"orderId"`
	ProductNames []string `json:"productNames"`
}

// TriageReply is the classifier's answer to a free-text chat message.
type TriageReply struct {
	Reply            string `json:"reply"`
	AskToRaiseTicket bool   `json:"askToRaiseTicket,omitempty"`
	Category         string `json:"category,omitempty"`
}
