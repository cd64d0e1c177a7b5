// Package support runs the scripted support-ticket conversation of the
// storefront chat widget.
//
// The dialogue itself is a set of pure functions over Conversation (Step,
// AttachImage and the After* result handlers). Engine executes the effects
// they ask for against the backend and keeps the visible transcript.
package support

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kajal19803/dairyfrontend/internal/domain"
	"go.uber.org/zap"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

type Triager interface {
	Triage(ctx context.Context, message string) (domain.TriageReply, error)
}

type OrderHistory interface {
	RecentOrders(ctx context.Context) ([]domain.RecentOrder, error)
}

type TicketSubmitter interface {
	SubmitTicket(ctx context.Context, draft domain.TicketDraft) (string, error)
}

type Backend interface {
	Triager
	OrderHistory
	TicketSubmitter
}

type Options struct {
	// CallTimeout bounds every backend call. Zero means no bound.
	CallTimeout time.Duration
	// ReplyDelay holds bot replies back with the typing flag raised.
	ReplyDelay time.Duration
	// OnChange receives a snapshot after every visible change. It runs on
	// the goroutine driving the turn.
	OnChange func(Snapshot)
	// OnImageRequested fires when the user agreed to attach an image.
	OnImageRequested func()
	Logger           *zap.Logger
}

type Snapshot struct {
	State    State     `json:"state"`
	Typing   bool      `json:"typing"`
	Messages []Message `json:"messages"`
}

type Engine struct {
	backend Backend
	opts    Options
	log     *zap.Logger

	// turn serialises whole turns, including their backend calls
	turn sync.Mutex

	mu       sync.RWMutex
	conv     Conversation
	messages []Message
	typing   bool
}

func NewEngine(backend Backend, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		backend: backend,
		opts:    opts,
		log:     log,
		conv:    NewConversation(),
	}
}

// SubmitUserReply feeds one line typed by the user into the conversation
// and returns once every reply it triggers has been appended. Blank input
// is ignored.
func (e *Engine) SubmitUserReply(ctx context.Context, text string) Snapshot {
	text = strings.TrimSpace(text)
	if text == "" {
		return e.Snapshot()
	}

	e.turn.Lock()
	defer e.turn.Unlock()

	conv := e.addMessage(Message{Sender: SenderUser, Text: text})
	e.apply(ctx, Step(conv, text))
	return e.Snapshot()
}

// SubmitImage attaches img to the draft. It fails with ErrImageNotExpected
// unless the conversation is waiting for an image.
func (e *Engine) SubmitImage(ctx context.Context, img domain.Image) (Snapshot, error) {
	e.turn.Lock()
	defer e.turn.Unlock()

	t, err := AttachImage(e.conversation(), img)
	if err != nil {
		return e.Snapshot(), err
	}

	name := img.Filename
	if name == "" {
		name = "image"
	}
	e.addMessage(Message{Sender: SenderUser, Text: "📎 " + name})
	e.apply(ctx, t)
	return e.Snapshot(), nil
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		State:    e.conv.State,
		Typing:   e.typing,
		Messages: append([]Message{}, e.messages...),
	}
}

func (e *Engine) Transcript() []Message {
	return e.Snapshot().Messages
}

func (e *Engine) Typing() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.typing
}

func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.conv.State
}

// apply commits t and keeps executing effects until a transition needs no
// more backend work.
func (e *Engine) apply(ctx context.Context, t Transition) {
	for {
		e.commit(ctx, t)

		switch t.Effect.Kind {
		case EffectTriage:
			var r domain.TriageReply
			err := e.call(ctx, "triage", func(ctx context.Context) (err error) {
				r, err = e.backend.Triage(ctx, t.Effect.Message)
				return err
			})
			t = AfterTriage(t.Conversation, t.Effect.Message, r, err)

		case EffectFetchOrders:
			var orders []domain.RecentOrder
			err := e.call(ctx, "recent orders", func(ctx context.Context) (err error) {
				orders, err = e.backend.RecentOrders(ctx)
				return err
			})
			t = AfterOrders(t.Conversation, orders, err)

		case EffectSubmitTicket:
			var ticket string
			err := e.call(ctx, "submit ticket", func(ctx context.Context) (err error) {
				ticket, err = e.backend.SubmitTicket(ctx, t.Effect.Draft)
				return err
			})
			if err == nil {
				e.log.Info("support ticket raised",
					zap.String("ticket", ticket),
					zap.String("issue_type", string(t.Effect.Draft.IssueType)))
			}
			t = AfterSubmit(ticket, err)

		case EffectRequestImage:
			if e.opts.OnImageRequested != nil {
				e.opts.OnImageRequested()
			}
			return

		default:
			return
		}
	}
}

// call runs fn with the typing flag raised and the configured timeout.
func (e *Engine) call(ctx context.Context, name string, fn func(context.Context) error) error {
	e.setTyping(true)
	defer e.setTyping(false)

	if e.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.CallTimeout)
		defer cancel()
	}

	err := fn(ctx)
	if err != nil {
		e.log.Warn("support backend call failed", zap.String("call", name), zap.Error(err))
	}
	return err
}

func (e *Engine) commit(ctx context.Context, t Transition) {
	if len(t.Replies) > 0 && e.opts.ReplyDelay > 0 {
		e.setTyping(true)
		timer := time.NewTimer(e.opts.ReplyDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	e.mu.Lock()
	e.conv = t.Conversation
	for _, text := range t.Replies {
		e.messages = append(e.messages, Message{Sender: SenderBot, Text: text})
	}
	if len(t.Replies) > 0 {
		e.typing = false
	}
	e.mu.Unlock()

	e.notify()
}

// addMessage adds m to the transcript and returns the current conversation.
func (e *Engine) addMessage(m Message) Conversation {
	e.mu.Lock()
	e.messages = append(e.messages, m)
	conv := e.conv
	e.mu.Unlock()

	e.notify()
	return conv
}

func (e *Engine) conversation() Conversation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.conv
}

func (e *Engine) setTyping(on bool) {
	e.mu.Lock()
	changed := e.typing != on
	e.typing = on
	e.mu.Unlock()

	if changed {
		e.notify()
	}
}

func (e *Engine) notify() {
	if e.opts.OnChange != nil {
		e.opts.OnChange(e.Snapshot())
	}
}
