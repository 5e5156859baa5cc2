package eventsvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
)

// NatsPublisher publishes timetable events as JSON on "<prefix>.<kind>".
type NatsPublisher struct {
	conn   *nats.Conn
	prefix string
}

var _ timetable.EventPublisher = (*NatsPublisher)(nil)

func NewNatsPublisher(conf *core.Config, logger core.Logger) (*NatsPublisher, error) {
	conn, err := nats.Connect(
		conf.Nats.URL,
		nats.Name(conf.AppName),
		nats.Timeout(conf.Nats.ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", err)
			}
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to nats")
	}
	return &NatsPublisher{conn: conn, prefix: conf.Nats.SubjectPrefix}, nil
}

func (p *NatsPublisher) Subject(kind timetable.EventKind) string {
	return p.prefix + "." + string(kind)
}

func (p *NatsPublisher) Publish(_ context.Context, evt timetable.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "marshalling event")
	}
	return p.conn.Publish(p.Subject(evt.Kind), data)
}

// Close flushes pending events and closes the connection.
func (p *NatsPublisher) Close() error {
	return p.conn.Drain()
}
