package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// unary builds a grpc.MethodDesc for one hand-rolled unary method.
// The generated-code equivalent is a per-method handler function;
// generics fold the decode/interceptor plumbing into one place.
func unary[Req any](serviceName, method string, call func(srv interface{}, ctx context.Context, in *Req) (interface{}, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv, ctx, req.(*Req))
			})
		},
	}
}

// invoke performs a typed unary client call with the msgpack codec
func invoke[Reply any](ctx context.Context, cc grpc.ClientConnInterface, fullMethod string, in interface{}) (*Reply, error) {
	out := new(Reply)
	if err := cc.Invoke(ctx, fullMethod, in, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, err
	}
	return out, nil
}
