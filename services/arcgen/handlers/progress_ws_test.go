// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/arcgen/arcgen/services/arcgen/progress"
)

func newProgressTestServer(t *testing.T, hub *progress.Hub) *httptest.Server {
	t.Helper()
	h := &Handlers{Progress: hub}
	router := gin.New()
	router.GET("/api/progress/:request_id", h.StreamProgress)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestStreamProgressUnknownRequestIDClosesImmediately(t *testing.T) {
	srv := newProgressTestServer(t, progress.NewHub())

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/progress/does-not-exist"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected a close error, got %v", err)
	}
	if closeErr.Code != progressUnknownRequestCloseCode {
		t.Errorf("got close code %d, want %d", closeErr.Code, progressUnknownRequestCloseCode)
	}
}

func TestStreamProgressStreamsEventsUntilDone(t *testing.T) {
	hub := progress.NewHub()
	hub.Begin("req-live")
	srv := newProgressTestServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/progress/req-live"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	hub.Publish("req-live", progress.Event{Stage: "resolving", Detail: "aws.ec2.EC2"})

	var ev progress.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if ev.Stage != "resolving" || ev.Done {
		t.Errorf("got %+v, want stage=resolving done=false", ev)
	}

	hub.End("req-live", "rendered 1 artifact")

	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read of final event failed: %v", err)
	}
	if !ev.Done {
		t.Errorf("expected final event to have Done=true, got %+v", ev)
	}
}
