// Package mcpserver exposes the workspace as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"novachat/app/service/intent"
	"novachat/app/service/thread"
	"novachat/app/service/workspace"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
)

const (
	serverName    = "novachat"
	serverVersion = "1.0.0"
)

type Server struct {
	ctx       context.Context
	mcp       *server.MCPServer
	workspace *workspace.Service
}

func New(di *do.Injector) (*Server, error) {
	return NewServer(
		do.MustInvoke[context.Context](di),
		do.MustInvoke[*workspace.Service](di),
	), nil
}

func NewServer(ctx context.Context, ws *workspace.Service) *Server {
	s := &Server{
		ctx:       ctx,
		mcp:       server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
		workspace: ws,
	}
	s.registerTools()

	return s
}

// Serve blocks serving stdin/stdout.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_threads",
		mcp.WithDescription("List chat threads, newest first, with the current selection and settings."),
	), s.listThreads)

	s.mcp.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send a message to the active thread (a new thread is created when none is active) and return the answer."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
		mcp.WithString("action", mcp.Description("Optional action: research, compare, latest, summarize, explain, brainstorm, validate, plan")),
		mcp.WithBoolean("web_search", mcp.Description("Allow live web search for this and later messages")),
	), s.sendMessage)

	s.mcp.AddTool(mcp.NewTool("regenerate",
		mcp.WithDescription("Replace an answer in the active thread with a fresh one."),
		mcp.WithString("message_id", mcp.Required(), mcp.Description("Id of the assistant message")),
	), s.regenerate)

	s.mcp.AddTool(mcp.NewTool("select_thread",
		mcp.WithDescription("Make a thread active."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread id")),
	), s.selectThread)

	s.mcp.AddTool(mcp.NewTool("delete_thread",
		mcp.WithDescription("Delete a thread."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread id")),
	), s.deleteThread)

	s.mcp.AddTool(mcp.NewTool("new_thread",
		mcp.WithDescription("Start a new thread with the next message."),
	), s.newThread)

	s.mcp.AddTool(mcp.NewTool("stop",
		mcp.WithDescription("Stop waiting for the answer in flight."),
	), s.stop)
}

func (s *Server) listThreads(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.workspace.Snapshot())
}

func (s *Server) sendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if action := request.GetString("action", ""); action != "" {
		s.workspace.ClearAction()
		if _, err = s.workspace.ToggleAction(intent.Action(action)); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", err, action)), nil
		}
	}

	if args := request.GetArguments(); args != nil {
		if _, ok := args["web_search"]; ok {
			s.workspace.SetWebSearch(request.GetBool("web_search", false))
		}
	}

	pending, err := s.workspace.Send(s.ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.awaitAnswer(ctx, pending)
}

func (s *Server) regenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	messageID, err := request.RequireString("message_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pending, err := s.workspace.Regenerate(s.ctx, messageID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.awaitAnswer(ctx, pending)
}

// awaitAnswer returns the last message of the thread once the request settled. A stopped or
// superseded request leaves the user message last, which is reported as an error.
func (s *Server) awaitAnswer(ctx context.Context, pending *workspace.Pending) (*mcp.CallToolResult, error) {
	if err := pending.Wait(ctx); err != nil {
		return nil, err
	}

	th, ok := s.workspace.Thread(pending.ThreadID)
	if !ok {
		return mcp.NewToolResultError("thread was deleted before the answer arrived"), nil
	}
	if len(th.Messages) == 0 || th.Messages[len(th.Messages)-1].Role != thread.RoleAssistant {
		return mcp.NewToolResultError("no answer was recorded"), nil
	}

	return jsonResult(th.Messages[len(th.Messages)-1])
}

func (s *Server) selectThread(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID, err := request.RequireString("thread_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !s.workspace.SelectThread(threadID) {
		return mcp.NewToolResultError("thread not found"), nil
	}

	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) deleteThread(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID, err := request.RequireString("thread_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !s.workspace.DeleteThread(threadID) {
		return mcp.NewToolResultError("thread not found"), nil
	}

	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) newThread(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.workspace.NewThread() {
		return mcp.NewToolResultError("a new thread cannot be started now"), nil
	}

	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) stop(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.workspace.Stop() {
		return mcp.NewToolResultText("nothing to stop"), nil
	}

	return mcp.NewToolResultText("stopped"), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	return mcp.NewToolResultText(string(data)), nil
}
