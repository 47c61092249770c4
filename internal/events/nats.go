// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	natspkg "github.com/nats-io/nats.go"
)

// SubjectPrefix is prepended to the event action to form the NATS subject,
// e.g. "blog.post.created".
const SubjectPrefix = "blog."

// Subject returns the NATS subject an event is published on.
func Subject(e Event) string {
	return SubjectPrefix + string(e.Type)
}

// NATSForwarder relays bus events to a NATS server as JSON messages.
type NATSForwarder struct {
	nc *natspkg.Conn
}

// ConnectNATS dials the NATS server at url.
func ConnectNATS(url string) (*NATSForwarder, error) {
	nc, err := natspkg.Connect(url, natspkg.Name("quillpress"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	slog.Info("nats connected", "url", nc.ConnectedUrl())
	return &NATSForwarder{nc: nc}, nil
}

// Handle publishes e. It has the Handler signature so it can be subscribed
// to a Bus directly.
func (f *NATSForwarder) Handle(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := f.nc.Publish(Subject(e), data); err != nil {
		return fmt.Errorf("publish %s: %w", Subject(e), err)
	}
	return nil
}

// Check reports an error unless the connection is up. It backs the NATS
// entry of the health endpoint.
func (f *NATSForwarder) Check(context.Context) error {
	if f.nc == nil {
		return errors.New("nats: no connection")
	}
	if st := f.nc.Status(); st != natspkg.CONNECTED {
		return fmt.Errorf("nats: connection %s", st)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (f *NATSForwarder) Close() {
	if err := f.nc.Drain(); err != nil {
		slog.Warn("nats drain failed", "error", err)
		f.nc.Close()
	}
}
