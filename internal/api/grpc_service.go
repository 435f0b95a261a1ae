package api

import (
	"context"
	"errors"

	"surfside/internal/availability"
	"surfside/internal/models"
	"surfside/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const availabilityServiceName = "surfside.availability.v1.AvailabilityService"

// AvailabilityHandler is the gRPC availability API. Requests and responses
// are google.protobuf.Struct messages keyed like the HTTP API's JSON.
type AvailabilityHandler interface {
	CheckSlot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CheckInstructor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListInstructors(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var availabilityServiceDesc = grpc.ServiceDesc{
	ServiceName: availabilityServiceName,
	HandlerType: (*AvailabilityHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckSlot", Handler: structHandler("CheckSlot", AvailabilityHandler.CheckSlot)},
		{MethodName: "CheckInstructor", Handler: structHandler("CheckInstructor", AvailabilityHandler.CheckInstructor)},
		{MethodName: "ListSlots", Handler: structHandler("ListSlots", AvailabilityHandler.ListSlots)},
		{MethodName: "ListInstructors", Handler: structHandler("ListInstructors", AvailabilityHandler.ListInstructors)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "surfside/availability/v1/availability.proto",
}

func RegisterAvailabilityServer(s grpc.ServiceRegistrar, h AvailabilityHandler) {
	s.RegisterService(&availabilityServiceDesc, h)
}

// MethodName returns the full gRPC method name for clients.
func MethodName(method string) string {
	return "/" + availabilityServiceName + "/" + method
}

func structHandler(method string, call func(AvailabilityHandler, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		h := srv.(AvailabilityHandler)
		if interceptor == nil {
			return call(h, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodName(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(h, ctx, req.(*structpb.Struct))
		})
	}
}

type AvailabilityServer struct {
	bookings    *service.BookingService
	instructors *service.InstructorService
}

func NewAvailabilityServer(bookings *service.BookingService, instructors *service.InstructorService) *AvailabilityServer {
	return &AvailabilityServer{bookings: bookings, instructors: instructors}
}

func (s *AvailabilityServer) CheckSlot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	activity, date := stringField(req, "activity"), stringField(req, "date")
	if activity == "" || date == "" {
		return nil, status.Error(codes.InvalidArgument, "activity and date are required")
	}

	st, err := s.bookings.CheckSlot(ctx, activity, date, stringField(req, "time"), intField(req, "duration", models.MinDuration))
	if err != nil {
		return nil, grpcError(err)
	}
	return structpb.NewStruct(slotFields(st))
}

func (s *AvailabilityServer) ListSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	activity, date := stringField(req, "activity"), stringField(req, "date")
	if activity == "" || date == "" {
		return nil, status.Error(codes.InvalidArgument, "activity and date are required")
	}

	grid, err := s.bookings.SlotGrid(ctx, activity, date, intField(req, "duration", models.MinDuration))
	if err != nil {
		return nil, grpcError(err)
	}
	slots := make([]any, 0, len(grid))
	for _, st := range grid {
		slots = append(slots, slotFields(st))
	}
	return structpb.NewStruct(map[string]any{"date": date, "activity": activity, "slots": slots})
}

func (s *AvailabilityServer) CheckInstructor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, date, slot := stringField(req, "name"), stringField(req, "date"), stringField(req, "time")
	if name == "" || date == "" || slot == "" {
		return nil, status.Error(codes.InvalidArgument, "name, date and time are required")
	}

	busy, conflicts, err := s.bookings.CheckInstructor(ctx, name, date, slot,
		intField(req, "duration", models.MinDuration), stringField(req, "exclude_id"))
	if err != nil {
		return nil, grpcError(err)
	}

	out := make([]any, 0, len(conflicts))
	for _, b := range conflicts {
		out = append(out, map[string]any{"id": b.ID, "time": b.Time, "duration": b.Duration, "activity": b.Activity})
	}
	return structpb.NewStruct(map[string]any{"instructor": name, "busy": busy, "conflicts": out})
}

func (s *AvailabilityServer) ListInstructors(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	roster, err := s.instructors.Roster(ctx)
	if err != nil {
		return nil, grpcError(err)
	}

	out := make([]any, 0, len(roster))
	for _, in := range roster {
		specialties := make([]any, 0, len(in.Specialties))
		for _, sp := range in.Specialties {
			specialties = append(specialties, sp)
		}
		out = append(out, map[string]any{"name": in.Name, "specialties": specialties})
	}
	return structpb.NewStruct(map[string]any{"instructors": out})
}

func slotFields(st availability.SlotStatus) map[string]any {
	return map[string]any{"time": st.Time, "available": st.Available, "reason": st.Reason}
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func intField(s *structpb.Struct, key string, fallback int) int {
	v, ok := s.GetFields()[key]
	if !ok {
		return fallback
	}
	return int(v.GetNumberValue())
}

func grpcError(err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
