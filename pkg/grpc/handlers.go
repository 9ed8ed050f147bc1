package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	z "github.com/Oudwins/zog"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

var errStreamBehind = errors.New("watch stream fell behind")

func validateRobotID(robotID *string) z.ZogIssueList {
	var robotIdValidator = z.String().Min(1).Required()
	return robotIdValidator.Validate(robotID)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, fleet.ErrRobotNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	common.GetLoggerWith(common.LoggerNameGrpcServer).Error("Request failed", zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

// toStruct converts through JSON so RPC clients see the REST field names.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

func (s *FleetServer) GetRobot(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	robotID := req.GetValue()
	if err := validateRobotID(&robotID); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "validation error: %v", err)
	}

	robot, err := s.Fleet.Robot.GetRobot(robotID)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := toStruct(robot)
	if err != nil {
		return nil, toStatus(err)
	}
	return out, nil
}

func (s *FleetServer) ListRobots(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	robots, err := s.Fleet.Robot.ListRobots(fleet.RobotFilter{})
	if err != nil {
		return nil, toStatus(err)
	}

	values := make([]*structpb.Value, 0, len(robots))
	for _, robot := range robots {
		item, err := toStruct(robot)
		if err != nil {
			return nil, toStatus(err)
		}
		values = append(values, structpb.NewStructValue(item))
	}
	return &structpb.ListValue{Values: values}, nil
}

// WatchRobot sends the robot's current status, then every update published
// for it until the client goes away. The stream joins the hub registry like
// any socket connection.
func (s *FleetServer) WatchRobot(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	logger := common.GetLoggerWith(common.LoggerNameGrpcServer)

	robotID := req.GetValue()
	if err := validateRobotID(&robotID); err != nil {
		return status.Errorf(codes.InvalidArgument, "validation error: %v", err)
	}

	robot, err := s.Fleet.Robot.GetRobot(robotID)
	if err != nil {
		return toStatus(err)
	}

	conn := &streamConn{
		id:      uuid.NewString(),
		updates: make(chan models.StatusUpdate, s.watchBuffer()),
		behind:  make(chan struct{}),
	}
	s.Registry.Join(conn, robotID)
	s.Metrics.ConnectionOpened(metrics.TransportGrpc)
	defer func() {
		s.Registry.Drop(conn)
		s.Metrics.ConnectionClosed(metrics.TransportGrpc)
		logger.Info("Watch stream closed", zap.String("conn_id", conn.id), zap.String("robot_id", robotID))
	}()

	logger.Info("Watch stream opened", zap.String("conn_id", conn.id), zap.String("robot_id", robotID))

	if err := sendUpdate(stream, robot.StatusUpdate()); err != nil {
		return err
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-conn.behind:
			return status.Error(codes.ResourceExhausted, errStreamBehind.Error())
		case update := <-conn.updates:
			if err := sendUpdate(stream, update); err != nil {
				return err
			}
		}
	}
}

func sendUpdate(stream grpc.ServerStreamingServer[structpb.Struct], update models.StatusUpdate) error {
	out, err := toStruct(update)
	if err != nil {
		return toStatus(err)
	}
	return stream.Send(out)
}

// streamConn adapts a WatchRobot stream to hub.Conn.
type streamConn struct {
	id      string
	updates chan models.StatusUpdate
	behind  chan struct{}
	once    sync.Once
}

func (c *streamConn) ID() string {
	return c.id
}

func (c *streamConn) Send(update models.StatusUpdate) error {
	select {
	case <-c.behind:
		return errStreamBehind
	default:
	}

	select {
	case c.updates <- update:
		return nil
	default:
		c.once.Do(func() { close(c.behind) })
		return fmt.Errorf("conn %s: %w", c.id, errStreamBehind)
	}
}
