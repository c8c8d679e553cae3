package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/vytor/sillychess/internal/protocol"
)

// GameAPI is the server side of a session.
type GameAPI interface {
	NewGame(ctx context.Context, color string) (*protocol.GameResponse, error)
	MakeMove(ctx context.Context, san string) (*protocol.GameResponse, error)
}

// ServerError is a non-2xx or error-bearing response.
type ServerError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// TransportError wraps a failed or timed out request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// APIClient talks to the move service over HTTP. The game is bound to the
// client by the server's cookie, kept in the client's jar.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) (*APIClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

func (c *APIClient) NewGame(ctx context.Context, color string) (*protocol.GameResponse, error) {
	return c.postGame(ctx, protocol.PathNewGame, protocol.NewGameRequest{Color: color})
}

func (c *APIClient) MakeMove(ctx context.Context, san string) (*protocol.GameResponse, error) {
	return c.postGame(ctx, protocol.PathMakeMove, protocol.MakeMoveRequest{Move: san})
}

// PGN fetches the current game as PGN text.
func (c *APIClient) PGN(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+protocol.PathPGN, nil)
	if err != nil {
		return "", err
	}
	status, body, err := c.do(req, "GET "+protocol.PathPGN)
	if err != nil {
		return "", err
	}
	if status/100 != 2 {
		return "", serverError(status, body)
	}
	return string(body), nil
}

func (c *APIClient) postGame(ctx context.Context, path string, payload any) (*protocol.GameResponse, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req, "POST "+path)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, serverError(status, body)
	}

	var out protocol.GameResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ServerError{Status: status, Message: "malformed response: " + err.Error()}
	}
	if out.Error != "" {
		return nil, &ServerError{Status: status, Message: out.Error}
	}
	return &out, nil
}

func (c *APIClient) do(req *http.Request, op string) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	return resp.StatusCode, body, nil
}

func serverError(status int, body []byte) error {
	var e protocol.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return &ServerError{Status: status, Code: e.Code, Message: e.Error}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &ServerError{Status: status, Message: msg}
}
