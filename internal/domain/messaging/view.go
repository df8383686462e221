package messaging

import (
	"github.com/google/uuid"

	"github.com/yungbote/gardenbarter-backend/internal/domain/user"
)

// ConversationView is the client shape of a thread: the conversation,
// its messages and both participants' summaries.
type ConversationView struct {
	*Conversation
	Sender    *user.Summary `json:"sender"`
	Recipient *user.Summary `json:"recipient"`
}

func NewConversationView(c *Conversation) *ConversationView {
	if c == nil {
		return nil
	}
	if c.Messages == nil {
		c.Messages = []*Message{}
	}
	return &ConversationView{
		Conversation: c,
		Sender:       c.Sender.Summary(),
		Recipient:    c.Recipient.Summary(),
	}
}

type InboxView struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	Conversations []*ConversationView `json:"conversations"`
}

func NewInboxView(in *Inbox, convs []*Conversation) *InboxView {
	out := &InboxView{Conversations: make([]*ConversationView, 0, len(convs))}
	if in != nil {
		out.ID = in.ID
		out.UserID = in.UserID
	}
	for _, c := range convs {
		out.Conversations = append(out.Conversations, NewConversationView(c))
	}
	return out
}
