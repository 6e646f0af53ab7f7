// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/boxoffice-pos/boxoffice/lib/codec"
)

// dialTimeout is the maximum time to wait for the TCP connect.
const dialTimeout = 5 * time.Second

// defaultCallTimeout bounds one request/response exchange when the
// caller's context has no deadline.
const defaultCallTimeout = 30 * time.Second

// ServiceError is returned by Call when the server responds with
// status "error". It carries the server's message and the action that
// failed.
type ServiceError struct {
	Action  string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error on %q: %s", e.Action, e.Message)
}

// Client holds one persistent connection to a SocketServer and sends
// requests over it one at a time, matching the server's sequential
// session model. Client is safe for concurrent use; concurrent calls
// are serialized.
type Client struct {
	address string
	codec   codec.MessageCodec

	mu      sync.Mutex
	conn    net.Conn
	decoder codec.StreamDecoder
}

// Dial connects to the server at address. A nil messageCodec selects
// JSON.
func Dial(ctx context.Context, address string, messageCodec codec.MessageCodec) (*Client, error) {
	if messageCodec == nil {
		messageCodec = codec.JSON{}
	}
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", address, err)
	}
	return &Client{
		address: address,
		codec:   messageCodec,
		conn:    conn,
		decoder: codec.NewStreamDecoder(messageCodec.Format(), conn),
	}, nil
}

// Call sends {action, ...fields} and returns the response map.
//
// On a "success" response the full response (including "status") is
// returned. On an "error" response the response is returned along
// with a *ServiceError. Connection and encoding failures are plain
// errors; after one the connection is unusable and the Client should
// be closed.
func (c *Client) Call(ctx context.Context, action string, fields map[string]any) (map[string]any, error) {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request[fieldAction] = action

	response, err := c.Send(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("calling %q on %s: %w", action, c.address, err)
	}

	status, _ := response[fieldStatus].(string)
	if status != StatusSuccess {
		message, _ := response[fieldMessage].(string)
		return response, &ServiceError{Action: action, Message: message}
	}
	return response, nil
}

// Send writes an arbitrary request map and reads one response without
// interpreting it.
func (c *Client) Send(ctx context.Context, request map[string]any) (map[string]any, error) {
	payload, err := c.codec.Encode(request)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return c.SendRaw(ctx, payload)
}

// SendRaw writes payload as-is and reads one response. Tests use it to
// send malformed or oversized messages.
func (c *Client) SendRaw(ctx context.Context, payload []byte) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultCallTimeout)
	}
	c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	if _, err := c.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	response, err := c.decoder.Decode()
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return response, nil
}

// Receive reads one more response without sending anything. A message
// the server split into several reads produces several responses.
func (c *Client) Receive(ctx context.Context) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultCallTimeout)
	}
	c.conn.SetReadDeadline(deadline)
	defer c.conn.SetReadDeadline(time.Time{})

	response, err := c.decoder.Decode()
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return response, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
