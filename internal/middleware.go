package internal

import (
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/ctxhelper"
	"github.com/derWhity/devevent/internal/log"
)

// MakeLoggingMiddleware returns a middleware that logs every call of the wrapped endpoint together with its duration
func MakeLoggingMiddleware(name string, fallback *logrus.Entry) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				logger := ctxhelper.LoggerOr(ctx, fallback).WithFields(logrus.Fields{
					log.FldEndpoint: name,
					log.FldDuration: time.Since(begin),
				})
				if err != nil {
					logger.WithError(err).Info("Endpoint call failed")
					return
				}
				logger.Debug("Endpoint called")
			}(time.Now())
			return next(ctx, request)
		}
	}
}
