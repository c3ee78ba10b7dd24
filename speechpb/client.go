package speechpb

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName                      = "speech.Speech"
	StreamingRecognizeFullMethodName = "/speech.Speech/StreamingRecognize"
)

var streamingRecognizeDesc = grpc.StreamDesc{
	StreamName:    "StreamingRecognize",
	ServerStreams: true,
	ClientStreams: true,
}

// SpeechClient is the client side of the speech.Speech service.
type SpeechClient interface {
	StreamingRecognize(ctx context.Context, opts ...grpc.CallOption) (RecognizeStream, error)
}

// RecognizeStream is the client end of a StreamingRecognize call. Send and
// Recv may be called from different goroutines.
type RecognizeStream interface {
	Send(*StreamingRecognizeRequest) error
	Recv() (*StreamingRecognizeResponse, error)
	CloseSend() error
}

type speechClient struct {
	cc grpc.ClientConnInterface
}

func NewSpeechClient(cc grpc.ClientConnInterface) SpeechClient {
	return &speechClient{cc: cc}
}

func (c *speechClient) StreamingRecognize(
	ctx context.Context,
	opts ...grpc.CallOption,
) (RecognizeStream, error) {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	stream, err := c.cc.NewStream(
		ctx,
		&streamingRecognizeDesc,
		StreamingRecognizeFullMethodName,
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return &recognizeStream{stream}, nil
}

type recognizeStream struct {
	grpc.ClientStream
}

func (s *recognizeStream) Send(m *StreamingRecognizeRequest) error {
	return s.ClientStream.SendMsg(m)
}

func (s *recognizeStream) Recv() (*StreamingRecognizeResponse, error) {
	m := new(StreamingRecognizeResponse)
	if err := s.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// SpeechServer is the server side of the speech.Speech service. The client
// only needs it for in-process test servers.
type SpeechServer interface {
	StreamingRecognize(RecognizeServerStream) error
}

type RecognizeServerStream interface {
	Send(*StreamingRecognizeResponse) error
	Recv() (*StreamingRecognizeRequest, error)
	grpc.ServerStream
}

// RegisterSpeechServer registers srv on s. The server must be created with
// grpc.ForceServerCodec(speechpb.Codec{}).
func RegisterSpeechServer(s grpc.ServiceRegistrar, srv SpeechServer) {
	s.RegisterService(&speechServiceDesc, srv)
}

var speechServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SpeechServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    streamingRecognizeDesc.StreamName,
			Handler:       streamingRecognizeHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "speech.proto",
}

func streamingRecognizeHandler(srv any, stream grpc.ServerStream) error {
	return srv.(SpeechServer).StreamingRecognize(&recognizeServerStream{stream})
}

type recognizeServerStream struct {
	grpc.ServerStream
}

func (s *recognizeServerStream) Send(m *StreamingRecognizeResponse) error {
	return s.ServerStream.SendMsg(m)
}

func (s *recognizeServerStream) Recv() (*StreamingRecognizeRequest, error) {
	m := new(StreamingRecognizeRequest)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
