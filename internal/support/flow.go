package support

import (
	"errors"
	"strconv"
	"strings"

	"github.com/kajal19803/dairyfrontend/internal/domain"
)

type State string

const (
	StateIdle           State = "idle"
	StateConfirmRaise   State = "confirmRaise"
	StateSelectOrder    State = "selectOrder"
	StateSelectProducts State = "selectProducts"
	StateSelectType     State = "selectType"
	StateEnterMessage   State = "enterMessage"
	StateAskImage       State = "askImage"
	StateWaitImage      State = "waitImage"
	StateAnyOther       State = "anyOther"
)

var (
	ErrImageNotExpected = errors.New("no image was requested at this point of the conversation")
	ErrEmptyImage       = errors.New("image is empty")
)

// Conversation is everything the dialogue remembers between turns.
type Conversation struct {
	State State
	Draft domain.TicketDraft
	// Orders holds the recent orders offered in selectOrder.
	Orders []domain.RecentOrder
	// Products holds the selected order's product names offered in
	// selectProducts.
	Products []string
}

func NewConversation() Conversation {
	return Conversation{State: StateIdle}
}

type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectTriage
	EffectFetchOrders
	EffectRequestImage
	EffectSubmitTicket
)

// Effect is the outbound work a transition asks for. Its outcome is fed
// back through AfterTriage, AfterOrders or AfterSubmit.
type Effect struct {
	Kind    EffectKind
	Message string
	Draft   domain.TicketDraft
}

type Transition struct {
	Conversation Conversation
	Replies      []string
	Effect       Effect
}

func reply(c Conversation, text ...string) Transition {
	return Transition{Conversation: c, Replies: text}
}

// reset drops the draft and every cached selection.
func reset() Conversation {
	return NewConversation()
}

// Step interprets one user reply in the conversation's current state. It
// never mutates c.
func Step(c Conversation, text string) Transition {
	text = strings.TrimSpace(text)

	switch c.State {
	case StateConfirmRaise:
		if isYes(text) {
			return Transition{Conversation: c, Effect: Effect{Kind: EffectFetchOrders}}
		}
		return reply(reset(), msgDeclined)

	case StateSelectOrder:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > len(c.Orders) {
			return reply(c, invalidOrderPrompt(len(c.Orders)))
		}
		order := c.Orders[n-1]
		c.Draft.OrderID = order.OrderID
		c.Products = append([]string(nil), order.ProductNames...)
		c.State = StateSelectProducts
		return reply(c, productsPrompt(c.Products))

	case StateSelectProducts:
		selected := selectProducts(c.Products, text)
		if len(selected) == 0 {
			return reply(c, msgInvalidProducts)
		}
		c.Draft.ProductNames = selected
		c.State = StateSelectType
		return reply(c, issueTypeMenu)

	case StateSelectType:
		n, err := strconv.Atoi(text)
		if err != nil {
			return reply(c, msgInvalidIssueType)
		}
		issue, ok := domain.IssueTypeAt(n)
		if !ok {
			return reply(c, msgInvalidIssueType)
		}
		c.Draft.IssueType = issue
		c.State = StateEnterMessage
		return reply(c, msgDescribe)

	case StateEnterMessage:
		c.Draft.Message = text
		c.State = StateAskImage
		return reply(c, msgAskImage)

	case StateAskImage:
		if isYes(text) {
			c.State = StateWaitImage
			return Transition{
				Conversation: c,
				Replies:      []string{msgUploadImage},
				Effect:       Effect{Kind: EffectRequestImage},
			}
		}
		c.State = StateAnyOther
		return reply(c, msgAnyOther)

	case StateWaitImage:
		return reply(c, msgUploadImage)

	case StateAnyOther:
		if isNo(text) {
			return Transition{Conversation: c, Effect: Effect{Kind: EffectSubmitTicket, Draft: c.Draft}}
		}
		c.State = StateSelectType
		return reply(c, issueTypeMenu)
	}

	// idle, or a state this version does not know about
	c.State = StateIdle
	return Transition{Conversation: c, Effect: Effect{Kind: EffectTriage, Message: text}}
}

// AttachImage stores img on the draft. Only a conversation waiting for an
// image accepts one.
func AttachImage(c Conversation, img domain.Image) (Transition, error) {
	if c.State != StateWaitImage {
		return Transition{Conversation: c}, ErrImageNotExpected
	}
	if len(img.Data) == 0 {
		return Transition{Conversation: c}, ErrEmptyImage
	}
	c.Draft.Image = &img
	c.State = StateAnyOther
	return reply(c, msgAnyOther), nil
}

// AfterTriage applies the classifier's answer to message.
func AfterTriage(c Conversation, message string, r domain.TriageReply, err error) Transition {
	if err != nil {
		return reply(reset(), msgServerError)
	}

	var replies []string
	if r.Reply != "" {
		replies = append(replies, r.Reply)
	}
	if !r.AskToRaiseTicket {
		return Transition{Conversation: c, Replies: replies}
	}

	c = reset()
	c.Draft.IssueType = domain.IssueType(r.Category)
	c.Draft.Message = message
	c.State = StateConfirmRaise
	return Transition{Conversation: c, Replies: append(replies, confirmRaisePrompt(c.Draft.IssueType))}
}

// AfterOrders applies the recent-orders lookup made after the user agreed
// to raise a ticket.
func AfterOrders(c Conversation, orders []domain.RecentOrder, err error) Transition {
	if err != nil {
		return reply(reset(), msgServerError)
	}
	if len(orders) == 0 {
		return reply(c, msgNoRecentOrders, confirmRaisePrompt(c.Draft.IssueType))
	}

	c.Orders = append([]domain.RecentOrder(nil), orders...)
	c.State = StateSelectOrder
	return reply(c, recentOrdersPrompt(c.Orders))
}

// AfterSubmit ends the ticket flow whatever the submission outcome.
func AfterSubmit(ticketNumber string, err error) Transition {
	if err != nil {
		return reply(reset(), msgTicketFailed)
	}
	return reply(reset(), ticketRaised(ticketNumber))
}

// selectProducts maps 1-based comma separated indexes onto products, in the
// order given. Invalid and repeated indexes are skipped.
func selectProducts(products []string, text string) []string {
	var selected []string
	seen := make(map[int]bool)
	for _, part := range strings.Split(text, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > len(products) || seen[n] {
			continue
		}
		seen[n] = true
		selected = append(selected, products[n-1])
	}
	return selected
}

func isYes(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "yes")
}

func isNo(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "no")
}
