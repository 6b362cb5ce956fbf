package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// otpCounterScript incrementa el contador de envios por email y fija la
// ventana solo en el primer incremento, en una sola operacion atomica.
const otpCounterScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

const otpKeyPrefix = "kindred:otp:"

// redisOTPRateLimiter acota cuantos OTP puede pedir un email por ventana.
// Si redis no responde, abre: bloquear logins por una caida de redis seria
// peor que dejar pasar algun pedido de mas.
type redisOTPRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewRedisOTPRateLimiter(client *redis.Client, window time.Duration, max int) OTPRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisOTPRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: otpKeyPrefix,
	}
}

func (l *redisOTPRateLimiter) Allow(email string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, otpCounterScript, []string{l.prefix + normalized}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}
