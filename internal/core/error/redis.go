package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors onto AppError; redis.Nil becomes not_found.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, KindNotFound, http.StatusNotFound, NotFoundMessage)
	}
	return New(err, KindRedis, http.StatusBadGateway, RedisErrorMessage)
}
