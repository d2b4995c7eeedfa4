package repository

import (
	"context"
	"errors"

	"github.com/localwire/portal/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
)

type Repository interface {
	AddMessage(ctx context.Context, msg *model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	GetMessages(ctx context.Context) ([]model.Message, error)
}
