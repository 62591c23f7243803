// Package rpcloader is the one concrete loader.Impl backend this module
// ships: it implements the "rpc" tag by dialing a remote MetaCall node
// over gRPC and translating Discover/Invoke into remote calls, mapping
// arguments and results between Values and JSON-native data with its own
// codec.go helpers and caching introspection through registrycache. Every other language backend (Python, Node, Ruby, ...)
// is a genuinely external collaborator per the purpose and scope of this
// module; this is the reference implementation showing the shape one
// takes.
package rpcloader

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/metacall/metacall-go/serial/wire"
)

// envelopeSchema is compiled once and reused to validate every envelope
// this package builds before it crosses the gRPC boundary in either
// direction.
var (
	envelopeSchemaOnce sync.Once
	envelopeSchema     *wire.Schema
	envelopeSchemaErr  error
)

func getEnvelopeSchema() (*wire.Schema, error) {
	envelopeSchemaOnce.Do(func() {
		envelopeSchema, envelopeSchemaErr = wire.EnvelopeSchema()
	})
	return envelopeSchema, envelopeSchemaErr
}

// validateEnvelope checks that kind/payload forms a well-shaped wire
// envelope before it is sent or after it is received.
func validateEnvelope(kind string, payload any) error {
	s, err := getEnvelopeSchema()
	if err != nil {
		return fmt.Errorf("rpcloader: compile envelope schema: %w", err)
	}
	doc, err := json.Marshal(map[string]any{"kind": kind, "payload": payload})
	if err != nil {
		return fmt.Errorf("rpcloader: marshal envelope: %w", err)
	}
	return s.Validate(doc)
}

// serviceName is the gRPC service path this package registers and dials.
// There is no .proto file: the service descriptor below is built by hand
// against grpc's low-level ServiceDesc API (the same shape protoc-gen-
// go-grpc emits), carrying structpb.Struct request/response payloads so
// no code generation step is required.
const serviceName = "metacall.rpcloader.v1.RPCLoader"

// Server is implemented by whatever exposes a remote node's modules over
// gRPC; a full implementation would wrap a real embedded language runtime,
// which is out of scope for this module.
type Server interface {
	// Discover returns the remote node's handle/module introspection
	// document for handleName: an object whose "funcs" array lists
	// {"name", "async", "args"} entries. Client reads only this flat
	// shape; it does not read the nested "scope"/"signature" layout
	// dispatch.Inspect produces.
	Discover(ctx context.Context, handleName string) (map[string]any, error)
	// Invoke calls symbol on the remote node with JSON-decoded args,
	// returning a JSON-encodable result.
	Invoke(ctx context.Context, symbol string, args []any) (any, error)
}

func serviceDesc(srv Server) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*Server)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Discover", Handler: discoverHandler},
			{MethodName: "Invoke", Handler: invokeHandler},
		},
		Metadata: "rpcloader/service.go",
	}
}

// Register installs srv as the RPC-loader service on s.
func Register(s *grpc.Server, srv Server) {
	s.RegisterService(serviceDesc(srv), srv)
}

func discoverHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(structpb.Struct)
	if err := dec(req); err != nil {
		return nil, err
	}
	handle := req.Fields["handle"].GetStringValue()
	run := func(ctx context.Context, _ any) (any, error) {
		doc, err := srv.(Server).Discover(ctx, handle)
		if err != nil {
			return nil, err
		}
		return structpb.NewStruct(doc)
	}
	if interceptor == nil {
		return run(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Discover"}
	return interceptor(ctx, req, info, run)
}

func invokeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(structpb.Struct)
	if err := dec(req); err != nil {
		return nil, err
	}
	symbol := req.Fields["symbol"].GetStringValue()
	argsVal := req.Fields["args"].GetListValue()
	var args []any
	if argsVal != nil {
		args = argsVal.AsSlice()
	}
	run := func(ctx context.Context, _ any) (any, error) {
		result, err := srv.(Server).Invoke(ctx, symbol, args)
		if err != nil {
			return nil, err
		}
		wrapped := map[string]any{"result": result}
		return structpb.NewStruct(wrapped)
	}
	if interceptor == nil {
		return run(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Invoke"}
	return interceptor(ctx, req, info, run)
}

// invokeMethod and discoverMethod are the client-side full method paths.
const (
	discoverMethod = "/" + serviceName + "/Discover"
	invokeMethod   = "/" + serviceName + "/Invoke"
)

// clientDiscover calls Discover over conn, validating both the outgoing
// request and the incoming response against the wire envelope schema.
func clientDiscover(ctx context.Context, conn grpc.ClientConnInterface, handle string) (map[string]any, error) {
	payload := map[string]any{"handle": handle}
	if err := validateEnvelope("discover", payload); err != nil {
		return nil, fmt.Errorf("rpcloader: discover request envelope: %w", err)
	}
	req, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, fmt.Errorf("rpcloader: build discover request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := conn.Invoke(ctx, discoverMethod, req, resp); err != nil {
		return nil, fmt.Errorf("rpcloader: discover %q: %w", handle, err)
	}
	m := resp.AsMap()
	if err := validateEnvelope("result", m); err != nil {
		return nil, fmt.Errorf("rpcloader: discover response envelope: %w", err)
	}
	return m, nil
}

// clientInvoke calls Invoke over conn, validating both directions the same
// way clientDiscover does.
func clientInvoke(ctx context.Context, conn grpc.ClientConnInterface, symbol string, args []any) (any, error) {
	payload := map[string]any{"symbol": symbol, "args": args}
	if err := validateEnvelope("call", payload); err != nil {
		return nil, fmt.Errorf("rpcloader: invoke request envelope: %w", err)
	}
	req, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, fmt.Errorf("rpcloader: build invoke request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := conn.Invoke(ctx, invokeMethod, req, resp); err != nil {
		return nil, fmt.Errorf("rpcloader: invoke %q: %w", symbol, err)
	}
	m := resp.AsMap()
	if err := validateEnvelope("result", m); err != nil {
		return nil, fmt.Errorf("rpcloader: invoke response envelope: %w", err)
	}
	return m["result"], nil
}
