package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type SpeakArgs struct {
	Text string `json:"text" jsonschema:"the text to speak"`
}

type SpeakResult struct {
	Queued bool `json:"queued"`
}

type ConverseArgs struct {
	Utterance string `json:"utterance" jsonschema:"what the user says to blacknox"`
}

type ConverseResult struct {
	Reply string `json:"reply"`
	Rule  string `json:"rule,omitempty" jsonschema:"name-memory rule that answered, empty for generated replies"`
}

type UserNameArgs struct{}

type UserNameResult struct {
	Name string `json:"name"`
}

type ListModelsArgs struct{}

type ListModelsResult struct {
	Default    string   `json:"default"`
	Downloaded []string `json:"downloaded"`
}

func (s *Server) handleSpeak(ctx context.Context, req *sdk.CallToolRequest, args SpeakArgs) (*sdk.CallToolResult, SpeakResult, error) {
	if err := s.svc.Speak(args.Text); err != nil {
		return nil, SpeakResult{}, err
	}
	return nil, SpeakResult{Queued: true}, nil
}

func (s *Server) handleConverse(ctx context.Context, req *sdk.CallToolRequest, args ConverseArgs) (*sdk.CallToolResult, ConverseResult, error) {
	reply, err := s.svc.Converse(ctx, args.Utterance)
	if err != nil {
		return nil, ConverseResult{}, err
	}
	return nil, ConverseResult{Reply: reply.Text, Rule: reply.Rule}, nil
}

func (s *Server) handleGetUserName(ctx context.Context, req *sdk.CallToolRequest, args UserNameArgs) (*sdk.CallToolResult, UserNameResult, error) {
	return nil, UserNameResult{Name: s.svc.WhoAmI()}, nil
}

func (s *Server) handleListModels(ctx context.Context, req *sdk.CallToolRequest, args ListModelsArgs) (*sdk.CallToolResult, ListModelsResult, error) {
	downloaded, err := s.models.ListDownloaded()
	if err != nil {
		return nil, ListModelsResult{}, fmt.Errorf("failed to list models: %w", err)
	}
	defaultName, _ := s.models.Default()
	return nil, ListModelsResult{Default: defaultName, Downloaded: downloaded}, nil
}
