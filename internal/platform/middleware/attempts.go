// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/constants"
	"github.com/taibuivan/gatekeeper/internal/platform/ctxutil"
	"github.com/taibuivan/gatekeeper/internal/platform/respond"
)

// AttemptLimiter counts credential attempts per key across all replicas.
// [redis.WindowLimiter] is the production implementation.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// AttemptLimit throttles a credential endpoint per client IP.
//
// scope separates the counters of different endpoints. A limiter error lets the
// request through: an unavailable Redis must not lock every user out.
func AttemptLimit(limiter AttemptLimiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			allowed, retryAfter, err := limiter.Allow(request.Context(), scope+":"+RealIP(request))
			if err != nil {
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "attempt_limiter_unavailable",
					slog.String("scope", scope),
					slog.Any("error", err),
				)
				next.ServeHTTP(writer, request)
				return
			}

			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(seconds))
				respond.Error(writer, request, apperr.RateLimited(seconds))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
