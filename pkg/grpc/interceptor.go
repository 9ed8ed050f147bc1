package grpc

import (
	"context"
	"reflect"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
)

// robotKeyed is any request carrying a robot id as its value, such as
// wrapperspb.StringValue.
type robotKeyed interface {
	GetValue() string
}

func targetTypes(targetReqTypes []proto.Message) map[reflect.Type]bool {
	return common.Reducer(targetReqTypes,
		func(m map[reflect.Type]bool, t proto.Message) map[reflect.Type]bool {
			m[reflect.TypeOf(t)] = true
			return m
		},
		map[reflect.Type]bool{},
	)
}

func (s *FleetServer) allow(targetTypeMap map[reflect.Type]bool, req any) bool {
	if _, ok := targetTypeMap[reflect.TypeOf(req)]; !ok {
		return true
	}
	if r, ok := req.(robotKeyed); ok {
		return s.CheckRobotLimiter(r.GetValue())
	}
	return true
}

func (s *FleetServer) CreateRateLimitInterceptor(targetReqTypes []proto.Message) grpc.UnaryServerInterceptor {
	targetTypeMap := targetTypes(targetReqTypes)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !s.allow(targetTypeMap, req) {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
		}

		return handler(ctx, req)
	}
}

// CreateStreamRateLimitInterceptor applies the same per-robot limit to the
// request message of server streams.
func (s *FleetServer) CreateStreamRateLimitInterceptor(targetReqTypes []proto.Message) grpc.StreamServerInterceptor {
	targetTypeMap := targetTypes(targetReqTypes)

	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		return handler(srv, &limitedStream{ServerStream: ss, allow: func(m any) bool {
			return s.allow(targetTypeMap, m)
		}})
	}
}

type limitedStream struct {
	grpc.ServerStream
	allow func(m any) bool
}

func (l *limitedStream) RecvMsg(m any) error {
	if err := l.ServerStream.RecvMsg(m); err != nil {
		return err
	}
	if !l.allow(m) {
		return status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
	}
	return nil
}
