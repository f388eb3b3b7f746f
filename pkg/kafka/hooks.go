package kafka

import (
	"context"
	"fmt"
	"time"

	"TechMart/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook defines lifecycle hooks around message handling.
// Returning an error from BeforeHandle skips the handler and sends the
// message down the failure path (OnError, DLQ, commit).
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

// HookError represents an error produced by a hook.
type HookError struct {
	Code string
	Err  error
}

func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *HookError) Unwrap() error { return e.Err }

// HookChain composes hooks. BeforeHandle runs in order threading
// ctx/message/data through; AfterHandle runs in reverse. Panics in hooks
// are recovered.
type HookChain struct {
	hooks []ConsumerHook
}

// NewHookChain creates a composable hook chain. Nil hooks are ignored.
func NewHookChain(hooks ...ConsumerHook) *HookChain {
	filtered := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return &HookChain{hooks: filtered}
}

func (c *HookChain) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	for _, h := range c.hooks {
		nextCtx, nextMsg, nextData, err := safeBefore(h, ctx, topic, km, data)
		if err != nil {
			return ctx, km, data, err
		}
		ctx, km, data = nextCtx, nextMsg, nextData
	}
	return ctx, km, data, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		h := c.hooks[i]
		recoverHook(func() { h.AfterHandle(ctx, topic, km, data, err) })
	}
}

func (c *HookChain) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for _, h := range c.hooks {
		h := h
		recoverHook(func() { h.OnError(ctx, topic, km, data, err) })
	}
}

func safeBefore(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte) (rctx context.Context, rmsg kafka.Message, rdata []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			rctx, rmsg, rdata = ctx, km, data
			err = &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("hook panic: %v", r)}
		}
	}()
	return h.BeforeHandle(ctx, topic, km, data)
}

func recoverHook(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

type ctxKey string

const (
	// CtxStartTime holds time.Time for when handling started.
	CtxStartTime ctxKey = "kafka_hook_start_time"
	// CtxTraceID holds the correlation id taken from headers.
	CtxTraceID ctxKey = "kafka_hook_trace_id"
)

// TraceIDFromContext returns the trace id placed by TraceHook.
func TraceIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxTraceID).(string)
	return v
}

// ExtractTraceID tries to get trace id from Kafka headers.
func ExtractTraceID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "trace_id" && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

// TraceHook copies the trace_id header into the context and stamps a start time.
type TraceHook struct{ NoopHook }

func (TraceHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	ctx = context.WithValue(ctx, CtxStartTime, time.Now())
	if id := ExtractTraceID(km); id != "" {
		ctx = context.WithValue(ctx, CtxTraceID, id)
	}
	return ctx, km, data, nil
}

// LoggingHook logs failed attempts and slow messages.
type LoggingHook struct {
	NoopHook
	Log  *logger.Logger
	Slow time.Duration
}

func (h LoggingHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, _ []byte, err error) {
	start, ok := ctx.Value(CtxStartTime).(time.Time)
	if !ok || err != nil || h.Slow <= 0 {
		return
	}
	if took := time.Since(start); took >= h.Slow {
		h.Log.Warn("kafka message slow",
			logger.String("topic", topic),
			logger.Int("partition", km.Partition),
			logger.Duration("took_ms", took))
	}
}

func (h LoggingHook) OnError(ctx context.Context, topic string, km kafka.Message, _ []byte, err error) {
	h.Log.Warn("kafka handle attempt failed",
		logger.String("topic", topic),
		logger.Int64("offset", km.Offset),
		logger.String("trace_id", TraceIDFromContext(ctx)),
		logger.Error(err))
}
