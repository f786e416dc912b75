// Package dev runs a stub cloud print service for local development: the
// five actions answered from in-memory state with envelope semantics,
// xsrf rotation included.
package dev

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Config struct {
	Addr    string        `validate:"required"`
	Timeout time.Duration `validate:"gt=0"`
	// Token accepted on device-authenticated requests; empty disables the
	// check.
	Token string
	// User reported as the active session user.
	User  string
	Users []string
}

type Server struct {
	config *Config
	server *http.Server
	state  *state
}

type state struct {
	mu sync.Mutex

	xsrf     map[string]string
	printers []gin.H
	invites  map[string][]gin.H
	jobs     []string
}

func New(config *Config) *Server {
	s := &state{
		xsrf:     map[string]string{},
		printers: samplePrinters(),
		invites:  sampleInvites(config.User),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	h := &handler{config: config, state: s}

	r.GET("/search", h.search)
	r.GET("/printer", h.printer)
	r.GET("/invites", h.invites)
	r.POST("/processinvite", h.processInvite)
	r.POST("/submit", h.submit)

	return &Server{
		config: config,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: r,
		},
		state: s,
	}
}

func (s *Server) Start(errors chan<- error) {
	slog.Info("starting dev cloud print server", "addr", s.config.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errors <- err
	}
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) String() string {
	return "dev"
}

type handler struct {
	config *Config
	state  *state
}

// envelope assembles a response body, rotating the user's xsrf token.
func (h *handler) envelope(user string, extra gin.H) gin.H {
	h.state.mu.Lock()
	token := uuid.NewString()
	h.state.xsrf[user] = token
	h.state.mu.Unlock()

	body := gin.H{
		"success":    true,
		"xsrf_token": token,
		"request": gin.H{
			"user":  user,
			"users": h.users(user),
		},
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func (h *handler) failure(code int, message string) gin.H {
	return gin.H{
		"success":   false,
		"errorCode": code,
		"message":   message,
	}
}

func (h *handler) users(user string) []string {
	if len(h.config.Users) > 0 {
		return h.config.Users
	}
	return []string{user}
}

// authorize resolves the requesting user: a bearer header means a device
// request checked against the configured token, otherwise the session
// cookie (or the configured default user) identifies a cookie request.
func (h *handler) authorize(c *gin.Context) (string, bool) {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if h.config.Token != "" && auth != "Bearer "+h.config.Token {
			c.JSON(http.StatusForbidden, h.failure(http.StatusForbidden, "invalid access token"))
			return "", false
		}
		return h.config.User, true
	}

	if cookie, err := c.Cookie("session"); err == nil && cookie != "" {
		return cookie, true
	}

	return h.config.User, true
}

func (h *handler) search(c *gin.Context) {
	user, ok := h.authorize(c)
	if !ok {
		return
	}

	recent := c.Query("q") == "^recent"

	h.state.mu.Lock()
	printers := make([]gin.H, 0, len(h.state.printers))
	for _, p := range h.state.printers {
		if recent && p["accessTime"] == nil {
			continue
		}
		printers = append(printers, p)
	}
	h.state.mu.Unlock()

	c.JSON(http.StatusOK, h.envelope(user, gin.H{"printers": printers}))
}

func (h *handler) printer(c *gin.Context) {
	user, ok := h.authorize(c)
	if !ok {
		return
	}

	id := c.Query("printerid")

	// envelope re-locks state for the xsrf rotation, so the match is
	// copied out first
	var printer gin.H
	h.state.mu.Lock()
	for _, p := range h.state.printers {
		if p["id"] == id {
			printer = p
			break
		}
	}
	h.state.mu.Unlock()

	if printer == nil {
		c.JSON(http.StatusOK, h.failure(0, fmt.Sprintf("no printer with id '%s'", id)))
		return
	}

	c.JSON(http.StatusOK, h.envelope(user, gin.H{"printers": []gin.H{printer}}))
}

func (h *handler) invites(c *gin.Context) {
	user, ok := h.authorize(c)
	if !ok {
		return
	}

	h.state.mu.Lock()
	invites := h.state.invites[user]
	h.state.mu.Unlock()

	c.JSON(http.StatusOK, h.envelope(user, gin.H{"invites": invites}))
}

func (h *handler) processInvite(c *gin.Context) {
	user, ok := h.authorize(c)
	if !ok {
		return
	}

	id := c.PostForm("printerid")
	accept := c.PostForm("accept") == "true"

	h.state.mu.Lock()

	var printer gin.H
	kept := h.state.invites[user][:0]
	for _, invite := range h.state.invites[user] {
		p, _ := invite["printer"].(gin.H)
		if p != nil && p["id"] == id {
			if accept {
				printer = p
			}
			continue
		}
		kept = append(kept, invite)
	}
	h.state.invites[user] = kept

	h.state.mu.Unlock()

	extra := gin.H{}
	if printer != nil {
		extra["printer"] = printer
	}

	c.JSON(http.StatusOK, h.envelope(user, extra))
}

func (h *handler) submit(c *gin.Context) {
	user, ok := h.authorize(c)
	if !ok {
		return
	}

	if c.PostForm("printerid") == "" || c.PostForm("content") == "" {
		c.JSON(http.StatusOK, h.failure(0, "printerid and content are required"))
		return
	}

	id := uuid.NewString()

	h.state.mu.Lock()
	h.state.jobs = append(h.state.jobs, id)
	h.state.mu.Unlock()

	c.JSON(http.StatusOK, h.envelope(user, gin.H{"job": gin.H{"id": id}}))
}

func samplePrinters() []gin.H {
	capabilities := json.RawMessage(`{
		"version": "1.0",
		"printer": {
			"supported_content_type": [{"content_type": "application/pdf"}],
			"color": {"option": [{"type": "STANDARD_MONOCHROME", "is_default": true}, {"type": "STANDARD_COLOR"}]},
			"copies": {"default": 1, "max": 99}
		}
	}`)

	return []gin.H{
		{
			"id":               "lobby-printer",
			"type":             "GOOGLE",
			"displayName":      "Lobby Printer",
			"description":      "first floor, by the elevators",
			"connectionStatus": "ONLINE",
			"capabilities":     capabilities,
			"accessTime":       "1700000000000",
		},
		{
			"id":               "lab-printer",
			"type":             "GOOGLE",
			"displayName":      "Lab Printer",
			"connectionStatus": "DORMANT",
			"capabilities":     capabilities,
		},
		{
			"id":               "save-to-drive",
			"type":             "GOOGLE_PROMOTED",
			"displayName":      "Save to Drive",
			"connectionStatus": "ONLINE",
			"tags":             []string{"__cp_printer_passes_certificate__=true"},
		},
	}
}

func sampleInvites(user string) map[string][]gin.H {
	return map[string][]gin.H{
		user: {
			{
				"sender":   gin.H{"name": "Office Admin", "email": "admin@example.com"},
				"receiver": gin.H{"type": "USER", "email": user},
				"printer": gin.H{
					"id":               "shared-printer",
					"type":             "GOOGLE",
					"displayName":      "Shared Printer",
					"connectionStatus": "ONLINE",
				},
			},
		},
	}
}
