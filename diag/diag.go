// Package diag is the diagnostic channel for recoverable failures.
// Every data-driven error in the engine (bad selector text, duplicate id,
// unrecognized mutation target) emits exactly one Record and execution
// continues; nothing in the content path panics or aborts a frame.
package diag

import "go.uber.org/zap"

// Record is one structured diagnostic.
type Record struct {
	Message string
	Context map[string]any
}

// Sink receives diagnostic records.
type Sink interface {
	Emit(Record)
}

// Reporter fans diagnostics out to its sinks. A Reporter with no sinks
// discards everything, which is what the zero value does.
type Reporter struct {
	sinks []Sink
}

// NewReporter creates a reporter emitting to the given sinks.
func NewReporter(sinks ...Sink) *Reporter {
	return &Reporter{sinks: sinks}
}

// Attach adds a sink after construction.
func (r *Reporter) Attach(sink Sink) {
	r.sinks = append(r.sinks, sink)
}

// Report emits one record built from a message and alternating key/value
// context pairs. A trailing key without a value is dropped.
func (r *Reporter) Report(message string, kv ...any) {
	if len(r.sinks) == 0 {
		return
	}
	var ctx map[string]any
	if len(kv) >= 2 {
		ctx = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				continue
			}
			ctx[key] = kv[i+1]
		}
	}
	rec := Record{Message: message, Context: ctx}
	for _, sink := range r.sinks {
		sink.Emit(rec)
	}
}

// ZapSink logs records through a zap logger at warn level.
type ZapSink struct {
	log *zap.Logger
}

// NewZapSink wraps a zap logger as a diagnostic sink.
func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log}
}

func (s *ZapSink) Emit(rec Record) {
	fields := make([]zap.Field, 0, len(rec.Context))
	for k, v := range rec.Context {
		fields = append(fields, zap.Any(k, v))
	}
	s.log.Warn(rec.Message, fields...)
}

// Collector buffers records in memory. Tests use it to assert that an
// operation produced exactly the diagnostics it should.
type Collector struct {
	Records []Record
}

func (c *Collector) Emit(rec Record) {
	c.Records = append(c.Records, rec)
}

// Reset discards all collected records.
func (c *Collector) Reset() {
	c.Records = c.Records[:0]
}

// Messages returns the collected messages in emission order.
func (c *Collector) Messages() []string {
	out := make([]string, len(c.Records))
	for i, rec := range c.Records {
		out[i] = rec.Message
	}
	return out
}
