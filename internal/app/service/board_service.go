package service

import (
	"context"
	"errors"
	"fmt"
	"html"

	"msgboard/internal/common"
	"msgboard/internal/domain/model"
	"msgboard/internal/domain/repository"

	"github.com/google/uuid"
)

// Message bodies are bounded on their escaped form: valid iff
// 1 < len < 255.
const (
	messageMinLen = 1
	messageMaxLen = 255
)

type BoardService struct {
	messageRepo repository.MessageRepository
}

func NewBoardService(messageRepo repository.MessageRepository) *BoardService {
	return &BoardService{messageRepo: messageRepo}
}

func (s *BoardService) List(ctx context.Context) ([]model.Message, error) {
	messages, err := s.messageRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// Post escapes the body and appends it under the session identity. The
// author is always taken from the session, never from the request.
func (s *BoardService) Post(ctx context.Context, current *model.CurrentUser, body string) error {
	if current == nil {
		return common.ErrUnauthorized
	}

	escaped := html.EscapeString(body)
	if len(escaped) <= messageMinLen || len(escaped) >= messageMaxLen {
		return common.ErrValidation
	}

	message := &model.Message{
		Key:      uuid.NewString(),
		Username: current.Username,
		Value:    escaped,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// Delete removes the message matching key alone; the session identity must
// match the stored owner or the request is denied without detail.
func (s *BoardService) Delete(ctx context.Context, current *model.CurrentUser, key string) error {
	if current == nil {
		return common.ErrUnauthorized
	}
	if key == "" {
		return common.ErrValidation
	}

	message, err := s.messageRepo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to find message: %w", err)
	}
	if message.Username != current.Username {
		return common.ErrForbidden
	}

	// The owner predicate re-checks ownership inside the delete itself.
	if err := s.messageRepo.DeleteByKey(ctx, key, current.Username); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
