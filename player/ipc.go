package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// ipcRequest is the JSON structure sent to mpv's IPC socket.
type ipcRequest struct {
	Command []interface{} `json:"command"`
}

// ipcResponse is the JSON structure received from mpv's IPC socket.
// Asynchronous event objects share the wire with responses and are
// distinguished by a non-empty "event" field.
type ipcResponse struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
	Event string      `json:"event"`
}

const readDeadline = 1 * time.Second

// request sends a single JSON-IPC command and waits for its response.
// The lock enforces strict request/response pairing: no second request
// enters the channel before the first one's response was consumed.
// A failed channel operation is not retried; the caller decides whether
// the failure matters for this tick.
func (m *MPV) request(command []interface{}) (interface{}, error) {
	m.mu.Lock()
	socketPath := m.socketPath
	m.mu.Unlock()

	m.ipcMu.Lock()
	defer m.ipcMu.Unlock()

	return roundTrip(socketPath, command)
}

// roundTrip performs one newline-delimited JSON exchange over the socket.
func roundTrip(socketPath string, command []interface{}) (interface{}, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcRequest{Command: command})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	// mpv requires newline-delimited JSON
	if _, err = conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	// mpv broadcasts core events to every connected client; skip them
	// until the actual response for this request arrives.
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("unmarshal: %w", err)
		}

		if resp.Event != "" {
			continue
		}

		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("mpv error: %s", resp.Error)
		}

		return resp.Data, nil
	}
}
