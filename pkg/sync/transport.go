package sync

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/events"
	"github.com/uplora/uplora/internal/workflow"
)

// actionPaths maps workflow actions to their transition endpoint segments.
var actionPaths = map[workflow.Action]string{
	workflow.ActionMarkReady:       "mark-ready",
	workflow.ActionRequestApproval: "request-approval",
	workflow.ActionApprove:         "approve",
	workflow.ActionPublish:         "publish",
	workflow.ActionRevert:          "revert",
}

// HTTPBackend implements Backend against the Uplora HTTP API.
type HTTPBackend struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPBackend creates a Backend talking to the given base URL with the
// given API key.
func NewHTTPBackend(baseURL, apiKey string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type contentPayload struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	TeamID       *string `json:"teamId"`
	Title        string  `json:"title"`
	Body         string  `json:"body"`
	MediaKey     *string `json:"mediaKey"`
	ThumbnailKey *string `json:"thumbnailKey"`
	ScheduledFor *string `json:"scheduledFor"`
	UpdatedAt    string  `json:"updatedAt"`
}

type statusPayload struct {
	Status string `json:"status"`
}

// Fetch implements Backend.
func (b *HTTPBackend) Fetch(ctx context.Context, id uuid.UUID) (*RemoteItem, error) {
	var data contentPayload
	if err := b.do(ctx, http.MethodGet, "/content/"+id.String(), nil, &data); err != nil {
		return nil, err
	}
	return toRemoteItem(&data)
}

// UpdateFields implements Backend.
func (b *HTTPBackend) UpdateFields(ctx context.Context, id uuid.UUID, fields Fields) (*RemoteItem, error) {
	var data contentPayload
	if err := b.do(ctx, http.MethodPatch, "/content/"+id.String(), fields, &data); err != nil {
		return nil, err
	}
	return toRemoteItem(&data)
}

// Transition implements Backend.
func (b *HTTPBackend) Transition(ctx context.Context, id uuid.UUID, action workflow.Action) (content.Status, error) {
	seg, ok := actionPaths[action]
	if !ok {
		return "", fmt.Errorf("unknown workflow action %q", action)
	}

	var data statusPayload
	if err := b.do(ctx, http.MethodPost, "/content/"+id.String()+"/"+seg, nil, &data); err != nil {
		return "", err
	}
	return content.Status(data.Status), nil
}

// OpenStream connects to /events and returns a Stream of live updates.
func (b *HTTPBackend) OpenStream(ctx context.Context, teamID, contentID *uuid.UUID) (Stream, error) {
	q := url.Values{}
	if teamID != nil {
		q.Set("teamId", teamID.String())
	}
	if contentID != nil {
		q.Set("contentId", contentID.String())
	}

	endpoint := b.baseURL + "/events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("X-API-Key", b.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiErrorFrom(resp)
	}

	return &sseStream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return &NetworkError{Err: err}
	}
	req.Header.Set("X-API-Key", b.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiErrorFrom(resp)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &NetworkError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &NetworkError{Err: fmt.Errorf("decoding response data: %w", err)}
		}
	}

	return nil
}

// apiErrorFrom converts an error response into the client taxonomy:
// EDIT_LOCKED and TRANSITION_DENIED become their typed equivalents,
// everything else a plain error (server 5xx is a NetworkError, retryable).
func apiErrorFrom(resp *http.Response) error {
	var envelope struct {
		Error *apiError `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	code, message := "", resp.Status
	if envelope.Error != nil {
		code, message = envelope.Error.Code, envelope.Error.Message
	}

	switch code {
	case "EDIT_LOCKED":
		return ErrEditLocked
	case "TRANSITION_DENIED":
		return &TransitionDeniedError{Reason: message}
	}

	if resp.StatusCode >= 500 {
		return &NetworkError{Err: fmt.Errorf("server error: %s", message)}
	}

	return fmt.Errorf("api error %s: %s", code, message)
}

func toRemoteItem(data *contentPayload) (*RemoteItem, error) {
	id, err := uuid.Parse(data.ID)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("parsing content id: %w", err)}
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, data.UpdatedAt)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("parsing updatedAt: %w", err)}
	}

	item := &RemoteItem{
		ID:        id,
		Type:      content.Type(data.Type),
		Status:    content.Status(data.Status),
		UpdatedAt: updatedAt,
		Fields: Fields{
			"title": data.Title,
			"body":  data.Body,
		},
	}

	if data.TeamID != nil {
		teamID, err := uuid.Parse(*data.TeamID)
		if err != nil {
			return nil, &NetworkError{Err: fmt.Errorf("parsing team id: %w", err)}
		}
		item.TeamID = &teamID
	}
	if data.MediaKey != nil {
		item.Fields["mediaKey"] = *data.MediaKey
	}
	if data.ThumbnailKey != nil {
		item.Fields["thumbnailKey"] = *data.ThumbnailKey
	}
	if data.ScheduledFor != nil {
		item.Fields["scheduledFor"] = *data.ScheduledFor
	}

	return item, nil
}

// sseStream reads newline-delimited "data:" JSON lines from /events.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// Next implements Stream.
func (s *sseStream) Next() (events.Event, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		var e events.Event
		if err := json.Unmarshal([]byte(strings.TrimSpace(line[len("data:"):])), &e); err != nil {
			return events.Event{}, &NetworkError{Err: fmt.Errorf("decoding event: %w", err)}
		}
		return e, nil
	}

	if err := s.scanner.Err(); err != nil {
		return events.Event{}, &NetworkError{Err: err}
	}
	return events.Event{}, &NetworkError{Err: io.EOF}
}

// Close implements Stream.
func (s *sseStream) Close() error {
	return s.body.Close()
}
