package cloudpb

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "cloudstorage.v1.CloudStorage"

// Full method names, as seen by interceptors.
const (
	LoginMethod    = "/" + ServiceName + "/Login"
	LogoutMethod   = "/" + ServiceName + "/Logout"
	UploadMethod   = "/" + ServiceName + "/Upload"
	DownloadMethod = "/" + ServiceName + "/Download"
	RenameMethod   = "/" + ServiceName + "/Rename"
	DeleteMethod   = "/" + ServiceName + "/Delete"
	ListMethod     = "/" + ServiceName + "/List"
)

type CloudStorageServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	Upload(context.Context, *UploadRequest) (*UploadResponse, error)
	Download(context.Context, *DownloadRequest) (*DownloadResponse, error)
	Rename(context.Context, *RenameRequest) (*RenameResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
}

func RegisterCloudStorageServer(s grpc.ServiceRegistrar, srv CloudStorageServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds the MethodHandler of one unary method.
func unary[Req, Resp any](fullMethod string, call func(CloudStorageServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CloudStorageServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CloudStorageServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CloudStorageServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unary(LoginMethod, CloudStorageServer.Login)},
		{MethodName: "Logout", Handler: unary(LogoutMethod, CloudStorageServer.Logout)},
		{MethodName: "Upload", Handler: unary(UploadMethod, CloudStorageServer.Upload)},
		{MethodName: "Download", Handler: unary(DownloadMethod, CloudStorageServer.Download)},
		{MethodName: "Rename", Handler: unary(RenameMethod, CloudStorageServer.Rename)},
		{MethodName: "Delete", Handler: unary(DeleteMethod, CloudStorageServer.Delete)},
		{MethodName: "List", Handler: unary(ListMethod, CloudStorageServer.List)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cloudstorage/v1",
}
