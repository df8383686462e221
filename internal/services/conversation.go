package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/gardenbarter-backend/internal/data/repos"
	types "github.com/yungbote/gardenbarter-backend/internal/domain"
	"github.com/yungbote/gardenbarter-backend/internal/domain/barter"
	"github.com/yungbote/gardenbarter-backend/internal/domain/messaging"
	"github.com/yungbote/gardenbarter-backend/internal/observability"
	"github.com/yungbote/gardenbarter-backend/internal/platform/ctxutil"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

const inboxErrorMessage = "Something went wrong when retrieving inbox data."

type MessageForm struct {
	Body *string `json:"body"`
}

// ConversationKey names a thread by its participants and listing.
type ConversationKey struct {
	SenderID    string `json:"senderId" form:"senderId"`
	RecipientID string `json:"recipientId" form:"recipientId"`
	BarterID    string `json:"barterId" form:"barterId"`
	BarterType  string `json:"barterType" form:"barterType"`
}

type StartConversationInput struct {
	ConversationKey
	FormData *MessageForm `json:"formData"`
}

// SendResult is what a stored message produced.
type SendResult struct {
	Conversation *types.Conversation
	Message      *types.Message
	Created      bool
}

type ConversationService interface {
	StartOrContinue(ctx context.Context, in StartConversationInput) (*SendResult, error)
	Reply(ctx context.Context, conversationID string, form *MessageForm) (*SendResult, error)
	Find(ctx context.Context, key ConversationKey) (*types.ConversationView, error)
	GetThread(ctx context.Context, conversationID string) (*types.ConversationView, error)
	GetInbox(ctx context.Context) (*types.InboxView, error)
}

type conversationService struct {
	db               *gorm.DB
	log              *logger.Logger
	userRepo         repos.UserRepo
	barterRepo       repos.BarterRepo
	inboxRepo        repos.InboxRepo
	conversationRepo repos.ConversationRepo
	messageRepo      repos.MessageRepo
	metrics          *observability.Metrics
	now              func() time.Time
}

func NewConversationService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	barterRepo repos.BarterRepo,
	inboxRepo repos.InboxRepo,
	conversationRepo repos.ConversationRepo,
	messageRepo repos.MessageRepo,
	metrics *observability.Metrics,
) ConversationService {
	return &conversationService{
		db:               db,
		log:              log.With("service", "ConversationService"),
		userRepo:         userRepo,
		barterRepo:       barterRepo,
		inboxRepo:        inboxRepo,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		metrics:          metrics,
		now:              func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

type resolvedKey struct {
	sender    *types.User
	recipient *types.User
	barter    *types.Barter
}

func (r *resolvedKey) tuple() repos.ConversationTuple {
	return repos.ConversationTuple{
		BarterID:    r.barter.ID,
		BarterType:  string(r.barter.BarterType),
		SenderID:    r.sender.ID,
		RecipientID: r.recipient.ID,
	}
}

func (s *conversationService) loadUser(dbc dbctx.Context, raw string) (*types.User, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, nil
	}
	users, err := s.userRepo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// resolve checks presence and existence of every key part. The first
// failure is reported.
func (s *conversationService) resolve(dbc dbctx.Context, key ConversationKey) (*resolvedKey, error) {
	out := &resolvedKey{}

	senderID := strings.TrimSpace(key.SenderID)
	if senderID == "" {
		return nil, badRequest("Missing senderId.")
	}
	sender, err := s.loadUser(dbc, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, badRequestf("Sender with id %s not found.", senderID)
	}
	out.sender = sender

	recipientID := strings.TrimSpace(key.RecipientID)
	if recipientID == "" {
		return nil, badRequest("Missing recipientId.")
	}
	recipient, err := s.loadUser(dbc, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, badRequestf("Recipient with id %s not found.", recipientID)
	}
	out.recipient = recipient

	barterID := strings.TrimSpace(key.BarterID)
	if barterID == "" {
		return nil, badRequest("Missing barterId.")
	}
	barterType := strings.TrimSpace(key.BarterType)
	if barterType == "" {
		return nil, badRequest("Missing barterType.")
	}
	cat, ok := barter.Lookup(barterType)
	if !ok {
		return nil, invalidBarterType(barterType)
	}
	var b *types.Barter
	if id, perr := uuid.Parse(barterID); perr == nil {
		b, err = s.barterRepo.GetByTypeAndID(dbc, cat.Key, id)
		if err != nil {
			return nil, fmt.Errorf("load barter: %w", err)
		}
	}
	if b == nil {
		return nil, badRequestf("No barter of type '%s' with id %s", barterType, barterID)
	}
	out.barter = b
	return out, nil
}

func checkBody(form *MessageForm) (string, error) {
	if form == nil {
		return "", badRequest("Missing formData object.")
	}
	body := ""
	if form.Body != nil {
		body = strings.TrimSpace(*form.Body)
	}
	if body == "" {
		return "", badRequest("Message body cannot be blank.")
	}
	if utf8.RuneCountInString(body) > messaging.MaxBodyLength {
		return "", badRequestf("body: Ensure this field has no more than %d characters.", messaging.MaxBodyLength)
	}
	return body, nil
}

func (s *conversationService) StartOrContinue(ctx context.Context, in StartConversationInput) (*SendResult, error) {
	ctx, span := observability.StartSpan(ctx, "conversation.send", attribute.String("barter_type", in.BarterType))
	defer span.End()

	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	dbc := dbctx.Of(ctx)
	key, err := s.resolve(dbc, in.ConversationKey)
	if err != nil {
		return nil, err
	}
	body, err := checkBody(in.FormData)
	if err != nil {
		return nil, err
	}
	if !key.barter.IsOwnedBy(key.recipient.ID) {
		return nil, badRequestf("Recipient with id %s does not own barter %s.", key.recipient.ID, key.barter.ID)
	}
	if key.sender.ID == key.recipient.ID {
		return nil, badRequest("Sender and recipient must be different users.")
	}
	if key.sender.ID != rd.UserID {
		return nil, forbidden("")
	}

	var res *SendResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		inbox, err := s.inboxRepo.Ensure(txc, key.recipient.ID)
		if err != nil {
			return fmt.Errorf("ensure inbox: %w", err)
		}
		conv, created, err := s.conversationRepo.Ensure(txc, inbox.ID, key.tuple())
		if err != nil {
			return fmt.Errorf("ensure conversation: %w", err)
		}
		msg, err := s.appendMessage(txc, conv.ID, key.sender.ID, key.recipient.ID, body)
		if err != nil {
			return err
		}
		if err := s.conversationRepo.LinkBarter(txc, key.barter.ID, conv.ID); err != nil {
			return fmt.Errorf("link barter: %w", err)
		}
		res = &SendResult{Conversation: conv, Message: msg, Created: created}
		return nil
	})
	if err != nil {
		s.log.Error("Send message failed", "error", err, "sender_id", key.sender.ID)
		return nil, fmt.Errorf("send message: %w", err)
	}
	s.metrics.IncMessageSent(res.Created)
	return res, nil
}

// appendMessage takes the next sequence number under the thread's row lock
// and stores the message with it.
func (s *conversationService) appendMessage(txc dbctx.Context, conversationID, senderID, recipientID uuid.UUID, body string) (*types.Message, error) {
	locked, err := s.conversationRepo.LockByID(txc, conversationID)
	if err != nil {
		return nil, fmt.Errorf("lock conversation: %w", err)
	}
	seq := locked.NextSeq + 1
	if err := s.conversationRepo.UpdateFields(txc, conversationID, map[string]interface{}{"next_seq": seq}); err != nil {
		return nil, fmt.Errorf("bump next_seq: %w", err)
	}
	msg := &types.Message{
		ConversationID: conversationID,
		Seq:            seq,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Body:           body,
		DateReceived:   s.now(),
	}
	if _, err := s.messageRepo.Create(txc, []*types.Message{msg}); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

func conversationNotFound(raw string) error {
	return notFound(fmt.Sprintf("No conversation found with id %s.", raw))
}

func (s *conversationService) Reply(ctx context.Context, conversationID string, form *MessageForm) (*SendResult, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	id, err := uuid.Parse(strings.TrimSpace(conversationID))
	if err != nil {
		return nil, conversationNotFound(conversationID)
	}
	conv, err := s.conversationRepo.GetByID(dbctx.Of(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil {
		return nil, conversationNotFound(conversationID)
	}
	if !conv.HasParticipant(rd.UserID) {
		return nil, forbidden("")
	}
	body, err := checkBody(form)
	if err != nil {
		return nil, err
	}

	var msg *types.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.appendMessage(dbctx.Context{Ctx: ctx, Tx: tx}, conv.ID, rd.UserID, conv.Counterpart(rd.UserID), body)
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	if err != nil {
		s.log.Error("Reply failed", "error", err, "conversation_id", conv.ID)
		return nil, fmt.Errorf("reply: %w", err)
	}
	s.metrics.IncMessageSent(false)
	return &SendResult{Conversation: conv, Message: msg}, nil
}

func (s *conversationService) Find(ctx context.Context, key ConversationKey) (*types.ConversationView, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	dbc := dbctx.Of(ctx)
	resolved, err := s.resolve(dbc, key)
	if err != nil {
		return nil, err
	}
	if rd.UserID != resolved.sender.ID && rd.UserID != resolved.recipient.ID {
		return nil, forbidden("")
	}
	conv, err := s.conversationRepo.FindByTuple(dbc, resolved.tuple())
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if conv == nil {
		return nil, notFound("No conversation found.")
	}
	conv.Sender = resolved.sender
	conv.Recipient = resolved.recipient
	return messaging.NewConversationView(conv), nil
}

func (s *conversationService) GetThread(ctx context.Context, conversationID string) (*types.ConversationView, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	id, err := uuid.Parse(strings.TrimSpace(conversationID))
	if err != nil {
		return nil, conversationNotFound(conversationID)
	}
	conv, err := s.conversationRepo.GetThread(dbctx.Of(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}
	if conv == nil {
		return nil, conversationNotFound(conversationID)
	}
	if !conv.HasParticipant(rd.UserID) {
		return nil, forbidden("")
	}
	return messaging.NewConversationView(conv), nil
}

// GetInbox lists the caller's incoming conversations, newest activity
// first. Failures are logged with their cause and reported generically.
func (s *conversationService) GetInbox(ctx context.Context) (*types.InboxView, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		s.log.Error("Inbox requested without request data")
		return nil, internal(inboxErrorMessage)
	}
	dbc := dbctx.Of(ctx)
	inbox, err := s.inboxRepo.Ensure(dbc, rd.UserID)
	if err != nil {
		s.log.Error("Load inbox failed", "error", err, "user_id", rd.UserID)
		return nil, internal(inboxErrorMessage)
	}
	convs, err := s.conversationRepo.ListByRecipient(dbc, rd.UserID)
	if err != nil {
		s.log.Error("List inbox conversations failed", "error", err, "user_id", rd.UserID)
		return nil, internal(inboxErrorMessage)
	}
	return messaging.NewInboxView(inbox, convs), nil
}
