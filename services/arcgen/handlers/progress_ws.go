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
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// progressUnknownRequestCloseCode is the close code sent when a caller
// opens a progress socket for a request_id that was never started or has
// already been swept from the hub.
const progressUnknownRequestCloseCode = 4404

const progressWriteWait = 5 * time.Second

var progressUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// StreamProgress handles GET /api/progress/{request_id}: upgrades to a
// websocket and streams the named request's progress.Event stream as JSON
// until the request completes (a final Done event, then the socket
// closes) or the id is unknown, in which case the socket closes
// immediately with progressUnknownRequestCloseCode.
//
// This is purely additive: generate-diagram and execute-code's synchronous
// HTTP response remains the source of truth for the final result, whether
// or not any client ever opens this socket.
func (h *Handlers) StreamProgress(c *gin.Context) {
	requestID := c.Param("request_id")

	if h.Progress == nil {
		h.closeUnknownProgress(c)
		return
	}

	evCh, unsubscribe, ok := h.Progress.Subscribe(requestID)
	if !ok {
		h.closeUnknownProgress(c)
		return
	}
	defer unsubscribe()

	ws, err := progressUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("failed to upgrade progress websocket", "request_id", requestID, "error", err)
		return
	}
	defer ws.Close()

	for ev := range evCh {
		if err := ws.WriteJSON(ev); err != nil {
			slog.Warn("failed to write progress event", "request_id", requestID, "error", err)
			return
		}
		if ev.Done {
			return
		}
	}
}

// closeUnknownProgress upgrades just long enough to send the
// unknown-request close frame, matching the contract that connecting for
// an id that was never started or already completed closes immediately
// rather than hanging open.
func (h *Handlers) closeUnknownProgress(c *gin.Context) {
	ws, err := progressUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()
	closeMsg := websocket.FormatCloseMessage(progressUnknownRequestCloseCode, "unknown request_id")
	_ = ws.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(progressWriteWait))
}
