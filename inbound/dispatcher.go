// Package inbound is the thin boundary between the webhook routing layer and
// the dispatch core: it parses the raw payload for a surface and returns the
// success-shaped delivery envelope. Sink failures are reported inside the
// envelope; only malformed payloads and storage outages surface as errors.
package inbound

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/events"
)

const (
	SurfacePROpened         = string(core.EventTypePROpened)
	SurfaceRecoveryComplete = string(core.EventTypeRecoveryComplete)
)

type Request struct {
	Surface string
	Headers map[string]string
	Body    []byte
}

type Result struct {
	StatusCode int
	Response   core.DispatchResult
}

// EventService is the dispatch surface the boundary forwards to.
type EventService interface {
	ProcessPROpened(ctx context.Context, event events.PROpenedEvent) (core.DispatchResult, error)
	ProcessRecoveryComplete(ctx context.Context, event events.RecoveryCompleteEvent) (core.DispatchResult, error)
}

type Dispatcher struct {
	service EventService
	logger  core.Logger
	mapper  core.ErrorMapper
}

func NewDispatcher(service EventService, logger core.Logger) (*Dispatcher, error) {
	if service == nil {
		return nil, fmt.Errorf("inbound: event service is required")
	}
	return &Dispatcher{
		service: service,
		logger:  glog.Ensure(logger),
		mapper:  core.DefaultErrorMapper,
	}, nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	if d == nil || d.service == nil {
		return Result{StatusCode: http.StatusInternalServerError},
			goerrors.New("inbound: dispatcher is not configured", goerrors.CategoryInternal).
				WithCode(http.StatusInternalServerError).
				WithTextCode(core.NotifyErrorInternal)
	}

	surface := strings.ToLower(strings.TrimSpace(req.Surface))
	switch surface {
	case SurfacePROpened:
		event, err := events.ParsePROpened(req.Body)
		if err != nil {
			return d.reject(err)
		}
		return d.forward(d.service.ProcessPROpened(ctx, event))
	case SurfaceRecoveryComplete:
		event, err := events.ParseRecoveryComplete(req.Body)
		if err != nil {
			return d.reject(err)
		}
		return d.forward(d.service.ProcessRecoveryComplete(ctx, event))
	default:
		return d.reject(goerrors.New(
			fmt.Sprintf("inbound: unsupported surface %q", surface),
			goerrors.CategoryBadInput,
		).WithCode(http.StatusBadRequest).WithTextCode(core.NotifyErrorBadInput))
	}
}

func (d *Dispatcher) forward(result core.DispatchResult, err error) (Result, error) {
	if err != nil {
		mapped := d.mapper(err)
		d.logger.Error("event dispatch failed", "error", mapped.Error())
		return Result{StatusCode: statusCode(mapped)}, mapped
	}
	return Result{
		StatusCode: http.StatusOK,
		Response:   result,
	}, nil
}

func (d *Dispatcher) reject(err error) (Result, error) {
	mapped := d.mapper(err)
	d.logger.Warn("inbound payload rejected", "error", mapped.Error())
	return Result{StatusCode: statusCode(mapped)}, mapped
}

func statusCode(err *goerrors.Error) int {
	if err == nil || err.Code == 0 {
		return http.StatusInternalServerError
	}
	return err.Code
}
