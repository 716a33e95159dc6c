/*
Package rpc defines the wire contract between ledger services.

All three internal services (account, ingest, query) speak unary gRPC
with MessagePack message bodies. The codec is registered under the
"msgpack" content subtype at init; Dial sets it as the default call
option so typed clients and servers agree without generated code.

Service surfaces are hand-rolled grpc.ServiceDesc values over plain
request/reply structs in messages.go. Servers implement the *Server
interfaces and register the matching *ServiceDesc; gateways use the
typed *Client wrappers.

StatusError translates domain errors to stable status codes at the
server boundary:

	validation        INVALID_ARGUMENT
	unauthenticated   UNAUTHENTICATED
	forbidden         PERMISSION_DENIED
	not found         NOT_FOUND
	conflict          ALREADY_EXISTS
	queue full/quota  RESOURCE_EXHAUSTED
	unavailable       UNAVAILABLE
	anything else     INTERNAL
*/
package rpc
