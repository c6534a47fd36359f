package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestResetLoginAttempts(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()

	repo := repository.NewRateLimitRepo(client, &config.Config{})
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectDel("storefront:login_attempts:ada@example.com").SetVal(1)

		assert.NoError(t, repo.ResetLoginAttempts(ctx, "ada@example.com"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure", func(t *testing.T) {
		mock.ExpectDel("storefront:login_attempts:ada@example.com").SetErr(errors.New("connection refused"))

		err := repo.ResetLoginAttempts(ctx, "ada@example.com")

		assert.ErrorContains(t, err, "failed to reset login attempts")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
