// Package telemetry reports unexpected import failures to Sentry.
//
// Reporting is opt-in. Only store, configuration and processing failures
// are sent; validation and format errors describe the user's input and stay
// local. Event messages pass through logger.RedactSensitiveData before they
// leave the process.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/birdnet-annotations/internal/errors"
	"github.com/tphakala/birdnet-annotations/internal/logger"
)

// Settings configures error reporting.
type Settings struct {
	DSN         string
	Environment string
	Release     string
	// Transport replaces the HTTP transport, for tests.
	Transport sentry.Transport
}

// Reporter sends EnhancedErrors to Sentry through its own hub, leaving the
// global hub untouched.
type Reporter struct {
	hub *sentry.Hub
}

// skipped categories are caused by input, not by the importer.
var skipped = map[string]bool{
	string(errors.CategoryValidation):   true,
	string(errors.CategoryDataFormat):   true,
	string(errors.CategoryConflict):     true,
	string(errors.CategoryCancellation): true,
	string(errors.CategoryNotFound):     true,
}

// NewReporter creates a Reporter.
func NewReporter(s Settings) (*Reporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              s.DSN,
		Transport:        s.Transport,
		Environment:      s.Environment,
		Release:          s.Release,
		SampleRate:       1.0,
		AttachStacktrace: false,
		ServerName:       "", // no hostnames
		BeforeSend:       scrub,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// ErrorHook returns an errors.ErrorHook capturing reportable errors.
func (r *Reporter) ErrorHook() errors.ErrorHook {
	return func(ee *errors.EnhancedError) {
		if skipped[ee.GetCategory()] {
			return
		}
		r.capture(ee)
	}
}

func (r *Reporter) capture(ee *errors.EnhancedError) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", ee.GetCategory())

		fields := make(map[string]any, len(ee.GetContext()))
		for k, v := range ee.GetContext() {
			fields[k] = logger.RedactSensitiveData(fmt.Sprint(v))
		}
		scope.SetContext("error", fields)
		scope.SetFingerprint([]string{ee.GetComponent(), ee.GetCategory()})

		event := sentry.NewEvent()
		event.Level = sentry.LevelError
		event.Message = ee.Error()
		event.Exception = []sentry.Exception{{
			Type:  fmt.Sprintf("%s %s error", ee.GetComponent(), ee.GetCategory()),
			Value: ee.Error(),
		}}
		r.hub.CaptureEvent(event)
	})
}

// Flush waits up to timeout for queued events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}

func scrub(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.ServerName = ""
	event.Message = logger.RedactSensitiveData(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = logger.RedactSensitiveData(event.Exception[i].Value)
	}
	return event
}
