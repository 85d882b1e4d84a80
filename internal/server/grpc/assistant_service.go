package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/emmett/blacknox/internal/assistant"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "blacknox.v1.Assistant"

const (
	methodSpeak    = "/" + ServiceName + "/Speak"
	methodConverse = "/" + ServiceName + "/Converse"
	methodWhoAmI   = "/" + ServiceName + "/WhoAmI"
)

// AssistantServer is the server API for the Assistant service
type AssistantServer interface {
	// Speak queues text on the speech output queue
	Speak(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)

	// Converse runs one conversation turn and speaks the reply
	Converse(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)

	// WhoAmI returns the name the assistant uses for the user
	WhoAmI(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// AssistantServiceDesc describes the Assistant service
var AssistantServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssistantServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Speak", Handler: unaryHandler(methodSpeak, AssistantServer.Speak)},
		{MethodName: "Converse", Handler: unaryHandler(methodConverse, AssistantServer.Converse)},
		{MethodName: "WhoAmI", Handler: unaryHandler(methodWhoAmI, AssistantServer.WhoAmI)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blacknox/v1/assistant.proto",
}

// RegisterAssistantServer registers srv on s
func RegisterAssistantServer(s grpc.ServiceRegistrar, srv AssistantServer) {
	s.RegisterService(&AssistantServiceDesc, srv)
}

func unaryHandler[Req, Resp any](fullMethod string, call func(AssistantServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AssistantServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AssistantServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AssistantService implements AssistantServer on top of the assistant
type AssistantService struct {
	svc *assistant.Service
}

// NewAssistantService creates the gRPC adapter for svc
func NewAssistantService(svc *assistant.Service) *AssistantService {
	return &AssistantService{svc: svc}
}

// Speak queues text for speaking
func (s *AssistantService) Speak(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.svc.Speak(req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// Converse answers one utterance
func (s *AssistantService) Converse(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	reply, err := s.svc.Converse(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(reply.Text), nil
}

// WhoAmI returns the user's name
func (s *AssistantService) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(s.svc.WhoAmI()), nil
}

func toStatus(err error) error {
	if errors.Is(err, assistant.ErrEmptyText) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// AssistantClient calls the Assistant service
type AssistantClient struct {
	cc grpc.ClientConnInterface
}

// NewAssistantClient creates a client on cc
func NewAssistantClient(cc grpc.ClientConnInterface) *AssistantClient {
	return &AssistantClient{cc: cc}
}

// Speak asks the server to say text
func (c *AssistantClient) Speak(ctx context.Context, text string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, methodSpeak, wrapperspb.String(text), new(emptypb.Empty), opts...)
}

// Converse sends an utterance and returns the reply
func (c *AssistantClient) Converse(ctx context.Context, utterance string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodConverse, wrapperspb.String(utterance), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// WhoAmI returns the name the assistant uses for the user
func (c *AssistantClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodWhoAmI, new(emptypb.Empty), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
