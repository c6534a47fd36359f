package service

import (
	stderrors "errors"

	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
)

func isNotFound(err error) bool {
	return stderrors.Is(err, repository.ErrNotFound)
}

func isDuplicate(err error) bool {
	return stderrors.Is(err, repository.ErrDuplicate)
}
