package audit

import "context"

//go:generate mockgen -source=sink.go -destination=./sink_mock.go -package=audit

// Sink records protocol audit events. Implementations must not block the caller for long
// and must swallow their own failures (logging them), since auditing never changes a response.
type Sink interface {
	Record(ctx context.Context, ev Event)
}
