package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/erauner12/uuid-server/internal/mcpserver/config"
	"github.com/rs/zerolog/log"
)

// maxFrameSize bounds a single newline-delimited JSON-RPC frame
const maxFrameSize = 4 << 20

// ErrTransportClosed is returned when writing to a closed stdio transport
var ErrTransportClosed = errors.New("stdio transport is closed")

// StdioTransport carries newline-delimited JSON-RPC frames over a reader/writer
// pair, normally the process stdin and stdout. One request is handled at a time.
type StdioTransport struct {
	mu     sync.Mutex
	in     io.Reader
	out    io.Writer
	closed bool
}

// NewStdioTransport connects a transport to the given streams
func NewStdioTransport(in io.Reader, out io.Writer) (*StdioTransport, error) {
	if in == nil {
		return nil, errors.New("stdio: input stream is not available")
	}
	if out == nil {
		return nil, errors.New("stdio: output stream is not available")
	}
	return &StdioTransport{in: in, out: out}, nil
}

// Send writes one response frame followed by a newline
func (t *StdioTransport) Send(resp *JSONRPCResponse) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("stdio: encode response: %w", err)
	}
	data = append(data, '\n')

	if _, err := t.out.Write(data); err != nil {
		return fmt.Errorf("stdio: write response: %w", err)
	}
	return nil
}

// Close stops further writes
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// ServeStdio reads frames until EOF or ctx is cancelled, dispatching each one
// through the server and writing any response back. EOF is a clean shutdown and
// returns nil.
func (s *MCPServer) ServeStdio(ctx context.Context, t *StdioTransport) error {
	defer t.Close()

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go readFrames(ctx, t.in, frames, readErr)

	log.Info().
		Str("name", s.config.ServerName).
		Str("version", s.config.ServerVersion).
		Msg("MCP server connected via stdio and is running")

	scope := requestScope{Transport: config.TransportStdio}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping stdio transport")
			return nil

		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("stdio: read request: %w", err)
			}
			log.Info().Msg("stdin closed, ending session")
			return nil

		case frame := <-frames:
			resp := s.HandleMessage(ctx, frame, scope)
			if resp == nil {
				continue
			}
			if err := t.Send(resp); err != nil {
				log.Error().Err(err).Msg("failed to write response")
				return err
			}
		}
	}
}

// readFrames scans newline-delimited frames, skipping blank lines. It reports
// nil on EOF and the scanner error otherwise.
func readFrames(ctx context.Context, in io.Reader, frames chan<- []byte, readErr chan<- error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		frame := make([]byte, len(line))
		copy(frame, line)
		select {
		case frames <- frame:
		case <-ctx.Done():
			return
		}
	}
	readErr <- scanner.Err()
}
