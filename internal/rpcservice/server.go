// Package rpcservice exposes compiler.Compiler over gRPC as a single
// unary Compile RPC, built the way the teacher's own grpc builtins
// expose arbitrary services -- by parsing a proto schema into
// descriptors with jhump/protoreflect, constructing a grpc.ServiceDesc
// by hand, and marshaling requests/responses through dynamic.Message
// -- rather than depending on protoc-generated stubs.
package rpcservice

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tealc-lang/sclc/internal/cache"
	"github.com/tealc-lang/sclc/internal/compiler"
	"github.com/tealc-lang/sclc/internal/config"
)

// Server implements the dynamically described CompilerService. Each
// request runs an independent compiler.Compile call against its own
// Registry/Scope tree (see internal/compiler), so Server itself holds
// no per-request state beyond the shared cache and the semaphore
// bounding concurrency.
type Server struct {
	compiler *compiler.Compiler
	cache    *cache.Store
	sem      *semaphore.Weighted

	fileDesc    *desc.FileDescriptor
	serviceDesc *desc.ServiceDescriptor
	requestMsg  *desc.MessageDescriptor
	responseMsg *desc.MessageDescriptor
	diagMsg     *desc.MessageDescriptor
}

// NewServer parses the in-memory proto schema and builds a Server
// backed by store (pass nil to run without a cache). Concurrent
// compiles are bounded to GOMAXPROCS, matching the per-process CPU
// budget a single-threaded compile pass actually has available.
func NewServer(store *cache.Store) (*Server, error) {
	fd, err := parseSchema()
	if err != nil {
		return nil, fmt.Errorf("parsing rpc schema: %w", err)
	}
	sd := fd.FindService("sclc.rpc.CompilerService")
	if sd == nil {
		return nil, fmt.Errorf("service sclc.rpc.CompilerService not found in schema")
	}
	method := sd.FindMethodByName("Compile")
	if method == nil {
		return nil, fmt.Errorf("method Compile not found on CompilerService")
	}
	diagMsg := fd.FindMessage("sclc.rpc.Diagnostic")
	if diagMsg == nil {
		return nil, fmt.Errorf("message sclc.rpc.Diagnostic not found in schema")
	}

	return &Server{
		compiler:    compiler.New(),
		cache:       store,
		sem:         semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		fileDesc:    fd,
		serviceDesc: sd,
		requestMsg:  method.GetInputType(),
		responseMsg: method.GetOutputType(),
		diagMsg:     diagMsg,
	}, nil
}

// Register builds the grpc.ServiceDesc for CompilerService and
// registers it against grpcServer, the same hand-built-descriptor
// pattern the teacher's grpcRegister builtin uses for user-supplied
// proto services.
func (s *Server) Register(grpcServer *grpc.Server) {
	desc := &grpc.ServiceDesc{
		ServiceName: s.serviceDesc.GetFullyQualifiedName(),
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Compile",
				Handler:    s.compileHandler,
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: s.fileDesc.GetName(),
	}
	grpcServer.RegisterService(desc, s)
}

func (s *Server) compileHandler(_ any, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := dynamic.NewMessage(s.requestMsg)
	if err := dec(req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	if interceptor == nil {
		return s.handleCompile(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/sclc.rpc.CompilerService/Compile"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.handleCompile(ctx, req.(*dynamic.Message))
	}
	return interceptor(ctx, req, info, handler)
}

func (s *Server) handleCompile(ctx context.Context, req *dynamic.Message) (interface{}, error) {
	reqID := uuid.New().String()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, status.Errorf(codes.Canceled, "request %s: acquiring compile slot: %v", reqID, err)
	}
	defer s.sem.Release(1)

	source, _ := req.TryGetFieldByName("source")
	configYAML, _ := req.TryGetFieldByName("config_yaml")

	cfg := config.DefaultBuildConfig()
	if yamlText, _ := configYAML.(string); yamlText != "" {
		var err error
		cfg, err = parseConfigYAML([]byte(yamlText))
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "request %s: parsing config: %v", reqID, err)
		}
	}

	sourceText, _ := source.(string)
	log.Printf("rpc compile request=%s bytes=%d", reqID, len(sourceText))

	var result compiler.Result
	var err error
	if s.cache != nil {
		result, err = s.cache.CompileCached(s.compiler, sourceText, cfg)
	} else {
		result = s.compiler.Compile(sourceText, cfg)
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "request %s: cache error: %v", reqID, err)
	}

	resp := dynamic.NewMessage(s.responseMsg)
	resp.SetFieldByName("assembly", result.Output)

	var diags []*dynamic.Message
	for _, e := range result.Errors {
		d := dynamic.NewMessage(s.diagMsg)
		d.SetFieldByName("code", errorCode(e))
		d.SetFieldByName("line", int32(errorLine(e)))
		d.SetFieldByName("message", e.Error())
		diags = append(diags, d)
	}
	if len(diags) > 0 {
		values := make([]interface{}, len(diags))
		for i, d := range diags {
			values[i] = d
		}
		resp.SetFieldByName("diagnostics", values)
	}

	log.Printf("rpc compile response=%s ok=%t diagnostics=%d", reqID, result.OK(), len(diags))
	return resp, nil
}

// CompileForTest drives the Compile handler directly through the same
// dynamic.Message encode/decode path a real RPC would use, without
// requiring a grpc.Server or network listener. It exists for this
// package's own tests.
func CompileForTest(ctx context.Context, s *Server, source, configYAML string) (*dynamic.Message, error) {
	req := dynamic.NewMessage(s.requestMsg)
	req.SetFieldByName("source", source)
	req.SetFieldByName("config_yaml", configYAML)

	resp, err := s.handleCompile(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.(*dynamic.Message), nil
}
