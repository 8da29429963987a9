package docs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nova-dawn/hookctl/internal/eventenv"
	"github.com/nova-dawn/hookctl/internal/hooks"
	"github.com/nova-dawn/hookctl/internal/transport"
)

func mcpResult(text string) json.RawMessage {
	b, _ := json.Marshal(struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}{Content: []struct {
		Text string `json:"text"`
	}{{Text: text}}})
	return b
}

type fakeTransport struct {
	calls int
	doc   string
}

func (f *fakeTransport) Call(ctx context.Context, req transport.Request) (transport.Response, error) {
	f.calls++
	switch req.Method {
	case "resolve-library-id":
		return transport.Response{Result: mcpResult(`Title: react
Trust Score: 9.5
Context7-compatible library ID: /facebook/react
----------`)}, nil
	case "get-library-docs":
		return transport.Response{Result: mcpResult("TITLE: " + f.doc)}, nil
	}
	return transport.Response{}, nil
}
func (f *fakeTransport) Close() error { return nil }

func TestEnhanceCachesBetweenCalls(t *testing.T) {
	h, err := New(hooks.Config{"cache_ttl_seconds": int64(60)})
	require.NoError(t, err)
	dh := h.(*Hook)
	ft := &fakeTransport{doc: "some docs"}
	dh.Attach(nil, ft, dh.log)

	ev := eventenv.Event{}
	_ = dh.enhance(context.Background(), "react", ev)
	_ = dh.enhance(context.Background(), "react", ev)

	require.Equal(t, 2, ft.calls, "the second lookup for the same (library, topic) should be served from cache, not re-issue resolve+fetch")
}

func TestEnhanceExpiresAfterTTL(t *testing.T) {
	h, err := New(hooks.Config{"cache_ttl_seconds": int64(0)})
	require.NoError(t, err)
	dh := h.(*Hook)
	dh.ttl = time.Nanosecond
	ft := &fakeTransport{doc: "v1"}
	dh.Attach(nil, ft, dh.log)

	ev := eventenv.Event{}
	_ = dh.enhance(context.Background(), "react", ev)
	time.Sleep(2 * time.Millisecond)
	_ = dh.enhance(context.Background(), "react", ev)

	require.Equal(t, 4, ft.calls, "expired entries should trigger a fresh resolve+fetch round trip")
}

func TestIsApplicable(t *testing.T) {
	h, err := New(hooks.Config{})
	require.NoError(t, err)
	dh := h.(*Hook)

	input := json.RawMessage(`{"file_path":"/tmp/main.go"}`)

	require.True(t, dh.IsApplicable(eventenv.Event{EventType: "PreToolUse", ToolName: "Write"}))
	require.True(t, dh.IsApplicable(eventenv.Event{EventType: "PreToolUse", ToolName: "MultiEdit"}))
	require.False(t, dh.IsApplicable(eventenv.Event{EventType: "PostToolUse", ToolName: "Write"}))
	require.False(t, dh.IsApplicable(eventenv.Event{EventType: "PreToolUse", ToolName: "Read"}))

	require.True(t, dh.IsApplicable(eventenv.Event{EventType: "PostToolUse", ToolName: "Read", ToolInput: json.RawMessage(`{"file_path":"/repo/package.json"}`)}))
	require.False(t, dh.IsApplicable(eventenv.Event{EventType: "PostToolUse", ToolName: "Read", ToolInput: input}))
}

func TestDetectLibrariesFromImportsDedupesAndTruncates(t *testing.T) {
	h, err := New(hooks.Config{"max_libraries": int64(2)})
	require.NoError(t, err)
	dh := h.(*Hook)

	content := "import React from 'react'\nimport { useState } from 'react'\nimport axios from 'axios'\nimport lodash from 'lodash'"
	ev := eventenv.Event{ToolInput: toolInput(t, content)}
	got := dh.detectLibraries(ev)
	require.Len(t, got, 2, "truncated to max_libraries")
}

func TestDetectLibrariesPrioritizesConfiguredLibrariesFirst(t *testing.T) {
	h, err := New(hooks.Config{"max_libraries": int64(5), "priority_libraries": []interface{}{"axios"}})
	require.NoError(t, err)
	dh := h.(*Hook)

	content := "import react from 'react'\nimport axios from 'axios'"
	ev := eventenv.Event{ToolInput: toolInput(t, content)}
	got := dh.detectLibraries(ev)
	require.Equal(t, "axios", got[0], "a configured priority library must sort ahead of detection order")
}

func TestDetectLibrariesRejectsPythonStdlib(t *testing.T) {
	h, err := New(hooks.Config{})
	require.NoError(t, err)
	dh := h.(*Hook)

	content := "import os\nimport json\nimport django"
	ev := eventenv.Event{ToolInput: toolInput(t, content)}
	got := dh.detectLibraries(ev)
	require.Contains(t, got, "django")
	require.NotContains(t, got, "os")
	require.NotContains(t, got, "json")
}

func TestSelectBestLibraryMatchPrefersExactTitleMatch(t *testing.T) {
	text := `Title: react-dom
Trust Score: 9.0
Context7-compatible library ID: /facebook/react-dom
----------
Title: react
Trust Score: 8.0
Context7-compatible library ID: /facebook/react
----------`
	got := selectBestLibraryMatch(text, "react")
	require.Equal(t, "/facebook/react", got, "an exact title match must outscore a higher-trust prefix match")
}

func TestFormatContextEnhancementShowsFirstTwoAndCountsTheRest(t *testing.T) {
	doc := "TITLE: Foo\nDESCRIPTION: Bar baz\n"
	got := formatContextEnhancement([]string{doc, doc, doc})
	require.Contains(t, got, "Foo")
	require.Contains(t, got, "and 1 more documentation entries available")
}

func toolInput(t *testing.T, content string) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(struct {
		Content string `json:"content"`
	}{Content: content})
	require.NoError(t, err)
	return b
}
