// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Huddle tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/huddle/internal/apperr"
	"github.com/starford/huddle/internal/eventservice"
	"github.com/starford/huddle/internal/models"
)

const storageKeysURI = "huddle://storage-keys"

// Server wraps the MCP server with Huddle tools.
type Server struct {
	mcp *server.MCPServer
	svc *eventservice.Service
}

// New creates a new MCP server with all Huddle tools registered.
func New(svc *eventservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Huddle",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_saved",
		mcp.WithDescription("List saved (bookmarked) events, newest first."),
	), s.listSaved)

	s.mcp.AddTool(mcp.NewTool("save_event",
		mcp.WithDescription("Save an event. Saving an already saved event does nothing."),
		eventIDArg(),
		mcp.WithString("title", mcp.Description("Event title shown in lists")),
		mcp.WithString("subtitle", mcp.Description("Secondary line, usually date and time")),
		mcp.WithString("location", mcp.Description("Where the event happens")),
		mcp.WithString("image", mcp.Description("Image URL")),
	), s.saveEvent)

	s.mcp.AddTool(mcp.NewTool("remove_saved",
		mcp.WithDescription("Remove an event from the saved list."),
		eventIDArg(),
	), s.removeSaved)

	s.mcp.AddTool(mcp.NewTool("list_rsvped",
		mcp.WithDescription("List RSVP'd events, newest first."),
	), s.listRSVPed)

	s.mcp.AddTool(mcp.NewTool("rsvp_event",
		mcp.WithDescription("RSVP to an event. The event is removed from the saved list."),
		eventIDArg(),
		mcp.WithString("title", mcp.Description("Event title shown in lists")),
		mcp.WithString("subtitle", mcp.Description("Secondary line, usually date and time")),
		mcp.WithString("location", mcp.Description("Where the event happens")),
		mcp.WithString("image", mcp.Description("Image URL")),
	), s.rsvpEvent)

	s.mcp.AddTool(mcp.NewTool("cancel_rsvp",
		mcp.WithDescription("Cancel an RSVP."),
		eventIDArg(),
	), s.cancelRSVP)

	s.mcp.AddTool(mcp.NewTool("event_status",
		mcp.WithDescription("Saved and RSVP flags, personal note and friend note count of one event."),
		eventIDArg(),
	), s.eventStatus)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read the personal note attached to an event."),
		eventIDArg(),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("set_note",
		mcp.WithDescription("Set the personal note of an event. Blank text removes the note."),
		eventIDArg(),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text")),
	), s.setNote)

	s.mcp.AddTool(mcp.NewTool("list_friend_notes",
		mcp.WithDescription("List the friend notes of an event, newest first."),
		eventIDArg(),
	), s.listFriendNotes)

	s.mcp.AddTool(mcp.NewTool("add_friend_note",
		mcp.WithDescription("Attach a friend note to an event."),
		eventIDArg(),
		mcp.WithString("author", mcp.Required(), mcp.Description("Display name of the author")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text")),
		mcp.WithString("avatar", mcp.Description("Avatar image URL")),
	), s.addFriendNote)

	// Resource: persisted key layout.
	s.mcp.AddResource(
		mcp.NewResource(storageKeysURI, "Storage Keys",
			mcp.WithResourceDescription("Persisted keys and the JSON shape stored under each."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readStorageKeysResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func eventIDArg() mcp.ToolOption {
	return mcp.WithString("id", mcp.Required(), mcp.Description("Event ID"))
}

func eventFromRequest(req mcp.CallToolRequest) (models.SavedEvent, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return models.SavedEvent{}, err
	}
	evt := models.SavedEvent{
		ID:       id,
		Title:    req.GetString("title", ""),
		Subtitle: req.GetString("subtitle", ""),
		Location: req.GetString("location", ""),
		Image:    req.GetString("image", ""),
	}
	if err := evt.Validate(); err != nil {
		return models.SavedEvent{}, err
	}
	return evt, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found"), nil
	case errors.Is(err, apperr.ErrInvalidID):
		return mcp.NewToolResultError("invalid id"), nil
	default:
		return mcp.NewToolResultError(err.Error()), nil
	}
}

func (s *Server) listSaved(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Saved().List(ctx)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(list)
}

func (s *Server) saveEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	evt, err := eventFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Save(ctx, evt); err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", evt.ID)), nil
}

func (s *Server) removeSaved(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Unsave(ctx, id); err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed: %s", id)), nil
}

func (s *Server) listRSVPed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.RSVPed().List(ctx)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(list)
}

func (s *Server) rsvpEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	evt, err := eventFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RSVP(ctx, evt); err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("rsvped: %s", evt.ID)), nil
}

func (s *Server) cancelRSVP(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.CancelRSVP(ctx, id); err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("cancelled: %s", id)), nil
}

func (s *Server) eventStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := s.svc.Status(ctx, id)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(st)
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.svc.Note(ctx, id)
	if err != nil {
		return errorResult(err)
	}
	if text == "" {
		return mcp.NewToolResultText("no note"), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) setNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// Empty text is allowed: it clears the note.
	text := req.GetString("text", "")
	if err := s.svc.SetNote(ctx, id, text); err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("note updated: %s", id)), nil
}

func (s *Server) listFriendNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := s.svc.FriendNotes(ctx, id)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(list)
}

func (s *Server) addFriendNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note := models.FriendNote{
		Author: req.GetString("author", ""),
		Avatar: req.GetString("avatar", ""),
		Text:   req.GetString("text", ""),
	}
	if err := note.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	added, err := s.svc.AddFriendNote(ctx, id, note)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(added)
}

func (s *Server) readStorageKeysResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      storageKeysURI,
			MIMEType: "text/markdown",
			Text:     StorageKeysDoc,
		},
	}, nil
}
