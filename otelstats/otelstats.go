// Package otelstats publishes the lock statistics registry through
// OpenTelemetry observable instruments.
//
// Every collection walks the registry with an smplock.Iterator, so only
// locks that set a section time record are exported, and the exporter never
// holds the registry lock while talking to the SDK.
package otelstats

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/llxisdsh/smplock"
)

const (
	// LockKey is the attribute naming the lock of a data point.
	LockKey = attribute.Key("smplock.lock")
	// QueueLengthKey is the attribute naming the contention bucket.
	QueueLengthKey = attribute.Key("smplock.queue_length")
)

type config struct {
	nameBufferSize int
}

// Option configures Register.
type Option func(*config)

// WithNameBufferSize sets how many bytes of a lock name are exported.
func WithNameBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.nameBufferSize = n
		}
	}
}

type instruments struct {
	usage            metric.Int64ObservableCounter
	maxAcquireTime   metric.Int64ObservableGauge
	maxSectionTime   metric.Int64ObservableGauge
	totalAcquireTime metric.Int64ObservableCounter
	totalSectionTime metric.Int64ObservableCounter
	contention       metric.Int64ObservableCounter
}

// Register creates the lock instruments on meter and the callback that
// observes them. Unregister the returned registration to stop exporting.
func Register(meter metric.Meter, opts ...Option) (metric.Registration, error) {
	cfg := config{nameBufferSize: smplock.NameBufferSize}
	for _, o := range opts {
		o(&cfg)
	}

	var (
		in  instruments
		err error
	)
	if in.usage, err = meter.Int64ObservableCounter(
		"smplock.usage",
		metric.WithDescription("Number of acquisitions of the lock"),
		metric.WithUnit("{acquisition}"),
	); err != nil {
		return nil, err
	}
	if in.maxAcquireTime, err = meter.Int64ObservableGauge(
		"smplock.acquire.time.max",
		metric.WithDescription("Longest time from requesting the lock to holding it"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if in.maxSectionTime, err = meter.Int64ObservableGauge(
		"smplock.section.time.max",
		metric.WithDescription("Longest time the lock was held"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if in.totalAcquireTime, err = meter.Int64ObservableCounter(
		"smplock.acquire.time.total",
		metric.WithDescription("Accumulated time spent acquiring the lock"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if in.totalSectionTime, err = meter.Int64ObservableCounter(
		"smplock.section.time.total",
		metric.WithDescription("Accumulated time the lock was held"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if in.contention, err = meter.Int64ObservableCounter(
		"smplock.contention",
		metric.WithDescription("Acquisitions by number of callers queued ahead"),
		metric.WithUnit("{acquisition}"),
	); err != nil {
		return nil, err
	}

	return meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			in.observe(o, cfg.nameBufferSize)
			return nil
		},
		in.usage,
		in.maxAcquireTime,
		in.maxSectionTime,
		in.totalAcquireTime,
		in.totalSectionTime,
		in.contention,
	)
}

func (in *instruments) observe(o metric.Observer, nameBufferSize int) {
	it := smplock.NewIterator()
	defer it.Stop()

	var s smplock.Snapshot
	name := make([]byte, nameBufferSize)
	for it.Next(&s, name) {
		lock := LockKey.String(string(name[:min(s.NameLen, len(name))]))
		attrs := metric.WithAttributes(lock)

		o.ObserveInt64(in.usage, int64(s.UsageCount), attrs)
		o.ObserveInt64(in.maxAcquireTime, int64(s.MaxAcquireTime), attrs)
		o.ObserveInt64(in.maxSectionTime, int64(s.MaxSectionTime), attrs)
		o.ObserveInt64(in.totalAcquireTime, int64(s.TotalAcquireTime), attrs)
		o.ObserveInt64(in.totalSectionTime, int64(s.TotalSectionTime), attrs)
		for i, c := range s.ContentionCounts {
			o.ObserveInt64(in.contention, int64(c),
				metric.WithAttributes(lock, QueueLengthKey.Int(i)))
		}
	}
}
