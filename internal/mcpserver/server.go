// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Flashdeck tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marbeck/flashdeck/internal/apperr"
	"github.com/marbeck/flashdeck/internal/deckservice"
	"github.com/marbeck/flashdeck/internal/models"
)

// Server wraps the MCP server with Flashdeck tools.
type Server struct {
	mcp   *server.MCPServer
	decks *deckservice.Service
}

// New creates a new MCP server with all Flashdeck tools registered.
func New(decks *deckservice.Service) *Server {
	s := &Server{decks: decks}

	s.mcp = server.NewMCPServer(
		"Flashdeck",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_decks",
		mcp.WithDescription("List all flashcard decks with card counts."),
	), s.listDecks)

	s.mcp.AddTool(mcp.NewTool("read_deck",
		mcp.WithDescription("Read a full deck including all of its cards."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Deck id")),
	), s.readDeck)

	s.mcp.AddTool(mcp.NewTool("create_deck",
		mcp.WithDescription("Create a new flashcard deck. The deck JSON MUST follow "+
			"the canonical deck format (name plus a cards array of front/back pairs). "+
			"Read the contract first via the get_deck_contract tool or the "+
			"flashdeck://deck-format resource."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Deck as a JSON object following the Flashdeck deck format contract")),
	), s.createDeck)

	s.mcp.AddTool(mcp.NewTool("delete_deck",
		mcp.WithDescription("Delete a flashcard deck by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Deck id")),
	), s.deleteDeck)

	s.mcp.AddTool(mcp.NewTool("get_deck_contract",
		mcp.WithDescription("Returns the canonical Flashdeck deck format contract. "+
			"Call this before creating decks to ensure correct structure."),
	), s.getDeckContract)

	// Resource: deck format contract.
	s.mcp.AddResource(
		mcp.NewResource("flashdeck://deck-format", "Deck Format Contract",
			mcp.WithResourceDescription("Canonical deck JSON shape that all created decks must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDeckFormatResource,
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

func (s *Server) listDecks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all := s.decks.List(ctx)
	if len(all) == 0 {
		return mcp.NewToolResultText("no decks"), nil
	}
	var b strings.Builder
	for _, d := range all {
		fmt.Fprintf(&b, "%s\t%s\t%d cards\n", d.ID, d.Name, len(d.Cards))
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) readDeck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.decks.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(d, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createDeck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var d models.Deck
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid deck JSON: %v", err)), nil
	}

	created, err := s.decks.Create(ctx, d)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return mcp.NewToolResultError(fmt.Sprintf("deck already exists: %s", d.ID)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%d cards)", created.ID, len(created.Cards))), nil
}

func (s *Server) deleteDeck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.decks.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) getDeckContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DeckFormatContract), nil
}

func (s *Server) readDeckFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "flashdeck://deck-format",
			MIMEType: "text/markdown",
			Text:     DeckFormatContract,
		},
	}, nil
}
