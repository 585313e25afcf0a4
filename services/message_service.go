package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/repositories"
)

const (
	maxMessageLength        = 4000
	defaultConversationSize = 100
	maxConversationSize     = 500

	EventMessageCreated = "message.created"
	EventMessagesRead   = "message.read"
)

// EventPublisher pushes events to a user's live connections.
type EventPublisher interface {
	PublishToUser(userID int, eventType string, payload interface{})
}

type MessageService interface {
	Send(ctx context.Context, actor models.Identity, recipientID int, input SendMessageInput) (*models.Message, error)
	Conversation(ctx context.Context, actor models.Identity, otherID int, limit int) ([]models.Message, error)
	Inbox(ctx context.Context, actor models.Identity) ([]models.ConversationSummary, error)
	MarkRead(ctx context.Context, actor models.Identity, otherID int) (int64, error)
}

type SendMessageInput struct {
	Body string `json:"body"`
}

func (in *SendMessageInput) Validate() error {
	in.Body = strings.TrimSpace(in.Body)
	if in.Body == "" {
		return fmt.Errorf("%w: message body is required", ErrValidationFailed)
	}
	if utf8.RuneCountInString(in.Body) > maxMessageLength {
		return fmt.Errorf("%w: message body must be at most %d characters", ErrValidationFailed, maxMessageLength)
	}
	return nil
}

type messageService struct {
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	publisher   EventPublisher
	logger      *slog.Logger
}

func NewMessageService(
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		logger:      loggerOrDefault(logger),
	}
}

func (s *messageService) Send(ctx context.Context, actor models.Identity, recipientID int, input SendMessageInput) (*models.Message, error) {
	if recipientID <= 0 {
		return nil, ErrInvalidID
	}
	if recipientID == actor.UserID {
		return nil, ErrMessageToSelf
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get recipient %d: %w", recipientID, err)
	}
	if actor.Role == models.RoleParticipant &&
		recipient.Role != models.RoleAdmin && recipient.Role != models.RoleMentor {
		return nil, ErrRecipientNotAllowed
	}

	msg := &models.Message{
		SenderID:    actor.UserID,
		RecipientID: recipientID,
		Body:        input.Body,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		if errors.Is(err, repositories.ErrMessageUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishToUser(recipientID, EventMessageCreated, msg)
	}
	s.logger.DebugContext(ctx, "message sent", slog.Int("message_id", msg.ID), slog.Int("sender_id", actor.UserID))
	return msg, nil
}

func (s *messageService) Conversation(ctx context.Context, actor models.Identity, otherID int, limit int) ([]models.Message, error) {
	if otherID <= 0 {
		return nil, ErrInvalidID
	}
	switch {
	case limit <= 0:
		limit = defaultConversationSize
	case limit > maxConversationSize:
		limit = maxConversationSize
	}

	list, err := s.messageRepo.ListConversation(ctx, actor.UserID, otherID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return list, nil
}

func (s *messageService) Inbox(ctx context.Context, actor models.Identity) ([]models.ConversationSummary, error) {
	list, err := s.messageRepo.Inbox(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	return list, nil
}

func (s *messageService) MarkRead(ctx context.Context, actor models.Identity, otherID int) (int64, error) {
	if otherID <= 0 {
		return 0, ErrInvalidID
	}
	n, err := s.messageRepo.MarkRead(ctx, actor.UserID, otherID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	if n > 0 && s.publisher != nil {
		s.publisher.PublishToUser(otherID, EventMessagesRead, map[string]int{"reader_id": actor.UserID})
	}
	return n, nil
}
