package server

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-repo-uploader/internal/config"
	apperrors "github.com/jrsteele09/go-repo-uploader/internal/errors"
	"github.com/jrsteele09/go-repo-uploader/server/ratelimit"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// multipartSlack is the room allowed above the archive limit for form fields and boundaries
const multipartSlack = 1 * config.MB

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// ServiceMiddleware is the stack for unauthenticated service endpoints
func (s *Server) ServiceMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chainedMiddleWare := []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.SecurityHeadersMiddleware,
	}
	return append(chainedMiddleWare, mw...)
}

// APIMiddleware adds the global per-IP rate limit to the service stack
func (s *Server) APIMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chainedMiddleWare := s.ServiceMiddleware(s.RateLimitMiddleware(s.apiLimiter, "api"))
	return append(chainedMiddleWare, mw...)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := s.nowTime()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		elapsed := s.nowTime().Sub(started)

		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, r.Pattern, rec.status, elapsed)
		}
		if s.env == config.EnvDevelopment {
			log.Info().Msgf("[%-19s] %s %s%d%s %s", colourMethod(r.Method), r.URL.Path, statusColour(rec.status), rec.status, ResetColor, elapsed)
			return
		}
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Str("ip", ratelimit.ExtractIP(r)).
			Str("user_agent", r.UserAgent()).
			Msg("request")
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Str("path", r.URL.Path).
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				writeErrorMessage(w, http.StatusInternalServerError, apperrors.CodeInternal, "Internal server error")
			}
		}()
		next(w, r)
	}
}

func (s *Server) SecurityHeadersMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "frame-ancestors 'none'")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		if getScheme(r) == "https" {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next(w, r)
	}
}

// RateLimitMiddleware rejects callers that exceed limiter with 429 and a Retry-After header
func (s *Server) RateLimitMiddleware(limiter *ratelimit.Limiter, name string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.Allow(ratelimit.ExtractIP(r))
			if ok {
				next(w, r)
				return
			}
			if s.metrics != nil {
				s.metrics.IncRateLimited(name)
			}
			seconds := int(math.Ceil(wait.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeErrorMessage(w, http.StatusTooManyRequests, apperrors.CodeRateLimitExceeded,
				fmt.Sprintf("Too many requests, retry in %d seconds", seconds))
		}
	}
}

// UploadSizeLimitMiddleware refuses bodies that cannot hold an archive within
// the size limit and caps the bytes read from the rest.
func (s *Server) UploadSizeLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := s.orchestrator.MaxFileSize() + multipartSlack
		if r.ContentLength > limit {
			writeErrorMessage(w, http.StatusRequestEntityTooLarge, apperrors.CodeFileTooLarge,
				fmt.Sprintf("File exceeds the maximum size of %dMB", s.orchestrator.MaxFileSize()/config.MB))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next(w, r)
	}
}

// gzipResponseWriter wraps http.ResponseWriter to compress response with gzip
type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// CompressionMiddleware adds gzip compression to responses
func (s *Server) CompressionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")

		gz := gzip.NewWriter(w)
		defer gz.Close()

		next(gzipResponseWriter{Writer: gz, ResponseWriter: w}, r)
	}
}
