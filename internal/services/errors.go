package services

import (
	apperrors "github.com/yungbote/nutriplan-backend/internal/pkg/errors"
)

var (
	ErrInvalidInput = apperrors.ErrInvalidArgument
	ErrNotFound     = apperrors.ErrNotFound
)
