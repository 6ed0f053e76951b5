package grpcx

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cwrk-planet/live-relay/internal/domain"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "relay.admin.v1.RelayAdmin"

	MethodListRooms  = "/" + ServiceName + "/ListRooms"
	MethodGetHistory = "/" + ServiceName + "/GetHistory"
)

// RoomReader: read-only доступ к реестру комнат.
type RoomReader interface {
	Rooms() []domain.RoomStats
	Lookup(id string) ([]domain.ChatMessage, error)
}

// AdminServer: админский API релея. Сообщения описаны well-known типами protobuf,
// поэтому сгенерированный код не нужен.
type AdminServer interface {
	ListRooms(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	GetHistory(ctx context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error)
}

type Server struct {
	rooms RoomReader
}

func NewServer(rooms RoomReader) *Server {
	return &Server{rooms: rooms}
}

// Register вешает админский сервис и стандартный health на grpc-сервер.
func Register(grpcServer *grpc.Server, s *Server) *health.Server {
	grpcServer.RegisterService(&adminServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	return hs
}

// -------- methods --------

func (s *Server) ListRooms(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	rooms := s.rooms.Rooms()
	items := make([]any, 0, len(rooms))
	for _, r := range rooms {
		items = append(items, map[string]any{
			"id":            r.ID,
			"members":       r.Members,
			"history_size":  r.HistorySize,
			"created_at":    r.CreatedAt.UTC().Format(timeLayout),
			"last_activity": r.LastActivity.UTC().Format(timeLayout),
		})
	}

	out, err := structpb.NewStruct(map[string]any{
		"items": items,
		"total": len(rooms),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Server) GetHistory(ctx context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error) {
	history, err := s.rooms.Lookup(in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}

	items := make([]any, 0, len(history))
	for _, m := range history {
		item, err := mapChat(m)
		if err != nil {
			return nil, mapErr(err)
		}
		items = append(items, item)
	}
	out, err := structpb.NewList(items)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// -------- helpers --------

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// mapChat отдаёт сообщение в том же виде, что и ws/REST: через его JSON.
func mapChat(m domain.ChatMessage) (any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// -------- service descriptor --------

var adminServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRooms", Handler: listRoomsHandler},
		{MethodName: "GetHistory", Handler: getHistoryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "relay/admin/v1/admin.proto",
}

func listRoomsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).ListRooms(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListRooms}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).ListRooms(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getHistoryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).GetHistory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetHistory}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).GetHistory(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
