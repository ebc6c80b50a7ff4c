package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/entity"
	"github.com/joseph-ayodele/payslip-tracker/internal/export"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

const serviceName = "payslips.v1.PayslipService"

// PayslipServiceServer is the server API for payslips.v1.PayslipService.
// Requests and responses are google.protobuf.Struct messages.
type PayslipServiceServer interface {
	ProcessDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPayslip(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QueryByName(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QueryByPeriod(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Statistics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeletePayslip(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportPayslips(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(PayslipServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PayslipServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PayslipServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// PayslipServiceDesc describes payslips.v1.PayslipService for grpc.Server.RegisterService.
var PayslipServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*PayslipServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ProcessDocument", PayslipServiceServer.ProcessDocument),
		unaryHandler("GetPayslip", PayslipServiceServer.GetPayslip),
		unaryHandler("QueryByName", PayslipServiceServer.QueryByName),
		unaryHandler("QueryByPeriod", PayslipServiceServer.QueryByPeriod),
		unaryHandler("Statistics", PayslipServiceServer.Statistics),
		unaryHandler("DeletePayslip", PayslipServiceServer.DeletePayslip),
		unaryHandler("ExportPayslips", PayslipServiceServer.ExportPayslips),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "payslips/v1/payslips.proto",
}

func RegisterPayslipServiceServer(s grpc.ServiceRegistrar, srv PayslipServiceServer) {
	s.RegisterService(&PayslipServiceDesc, srv)
}

// PayslipClient calls payslips.v1.PayslipService methods by name.
type PayslipClient struct {
	cc grpc.ClientConnInterface
}

func NewPayslipClient(cc grpc.ClientConnInterface) *PayslipClient {
	return &PayslipClient{cc: cc}
}

// Call invokes method (e.g. "GetPayslip") with req.
func (c *PayslipClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// PayslipServer implements PayslipServiceServer.
type PayslipServer struct {
	processor *pipeline.Processor
	payslips  repository.PayslipRepository
	exporter  *export.Service
	logger    *slog.Logger
}

func NewPayslipServer(proc *pipeline.Processor, payslips repository.PayslipRepository, exporter *export.Service, logger *slog.Logger) *PayslipServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayslipServer{processor: proc, payslips: payslips, exporter: exporter, logger: logger}
}

func (s *PayslipServer) ProcessDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filename := stringField(req, "filename")
	if filename == "" {
		s.logger.Error("process request missing filename")
		return nil, status.Error(codes.InvalidArgument, "filename is required")
	}
	content, err := base64.StdEncoding.DecodeString(stringField(req, "content"))
	if err != nil {
		s.logger.Error("invalid content encoding", "filename", filename, "error", err)
		return nil, status.Error(codes.InvalidArgument, "content must be base64")
	}

	s.logger.Info("processing document", "filename", filename, "size", len(content))
	out, err := s.processor.Process(ctx, filename, content)
	if err != nil {
		s.logger.Error("failed to process document", "filename", filename, "error", err)
		return nil, common.StatusFromError(err)
	}
	return toStruct(out)
}

func (s *PayslipServer) GetPayslip(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := parseID(stringField(req, "id"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	row, err := s.payslips.GetByID(ctx, id)
	if err != nil {
		return nil, common.StatusFromError(err)
	}
	return toStruct(row)
}

func (s *PayslipServer) QueryByName(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := stringField(req, "name")
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	rows, err := s.payslips.QueryByName(ctx, name)
	if err != nil {
		s.logger.Error("failed to query payslips by name", "name", name, "error", err)
		return nil, common.StatusFromError(err)
	}
	return listResponse(rows)
}

func (s *PayslipServer) QueryByPeriod(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	period := stringField(req, "period")
	if err := common.ValidateAndReturnError(common.NewValidator().Field("period", period, common.Required, common.Period)); err != nil {
		return nil, err
	}
	rows, err := s.payslips.QueryByPeriod(ctx, period)
	if err != nil {
		s.logger.Error("failed to query payslips by period", "period", period, "error", err)
		return nil, common.StatusFromError(err)
	}
	return listResponse(rows)
}

func (s *PayslipServer) Statistics(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	stats, err := s.payslips.Statistics(ctx)
	if err != nil {
		s.logger.Error("failed to compute statistics", "error", err)
		return nil, common.StatusFromError(err)
	}
	return toStruct(stats)
}

func (s *PayslipServer) DeletePayslip(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := parseID(stringField(req, "id"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.processor.Delete(ctx, id); err != nil {
		return nil, common.StatusFromError(err)
	}
	return toStruct(map[string]any{"id": id.String(), "deleted": true})
}

func (s *PayslipServer) ExportPayslips(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	period := stringField(req, "period")
	if period != "" {
		if err := common.ValidateAndReturnError(common.NewValidator().Field("period", period, common.Period)); err != nil {
			return nil, err
		}
	}
	start := time.Now()
	xlsx, err := s.exporter.ExportPayslipsXLSX(ctx, period)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "period", period, "err", err)
		return nil, common.StatusFromError(err)
	}
	return toStruct(map[string]any{
		"xlsx":       base64.StdEncoding.EncodeToString(xlsx),
		"size":       len(xlsx),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
}

func listResponse(rows []*entity.Payslip) (*structpb.Struct, error) {
	if rows == nil {
		rows = []*entity.Payslip{}
	}
	return toStruct(map[string]any{"payslips": rows, "count": len(rows)})
}

// UnaryLogger tags each call with a request ID and logs its outcome.
func UnaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx, reqID := common.EnsureRequestID(ctx)
		ctx = common.WithLogger(ctx, logger.With("request_id", reqID))

		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"request_id", reqID,
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

// NewGRPCServer returns a grpc.Server with the payslip service, the standard
// health service and reflection registered.
func NewGRPCServer(srv PayslipServiceServer, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryLogger(logger))}, opts...)
	gs := grpc.NewServer(opts...)
	RegisterPayslipServiceServer(gs, srv)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(gs)
	return gs, hs
}
