package server

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/pipeline"
)

type fakePipeline struct {
	images [][]byte
	texts  []entity.RawRecognition
	err    error
	rid    string
}

func outcomeFor(i int, text string) pipeline.Outcome {
	if strings.TrimSpace(text) == "" {
		return pipeline.Outcome{Index: i, State: constants.StateFailed, Err: common.NewRecognitionError(i, errors.New("no text found"))}
	}
	rec := entity.NewRecord(constants.SourceLocal)
	rec.Name = text
	rec.GrapeVarieties = []string{"Merlot"}
	rec.Confidence = 70
	return pipeline.Outcome{
		Index:  i,
		State:  constants.StateFinalized,
		Trail:  []constants.ImageState{constants.StateRecognized, constants.StateFinalized},
		Record: &rec,
	}
}

func (f *fakePipeline) ProcessImages(ctx context.Context, images [][]byte) ([]pipeline.Outcome, error) {
	f.images = images
	f.rid = common.RequestIDFromContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]pipeline.Outcome, len(images))
	for i, img := range images {
		out[i] = outcomeFor(i, string(img))
	}
	return out, nil
}

func (f *fakePipeline) ProcessTexts(ctx context.Context, texts []entity.RawRecognition) ([]pipeline.Outcome, error) {
	f.texts = texts
	f.rid = common.RequestIDFromContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]pipeline.Outcome, len(texts))
	for i, t := range texts {
		out[i] = outcomeFor(i, t.Text)
	}
	return out, nil
}

func startServer(t *testing.T, p Pipeline) (*LabelServiceClient, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, _ := NewGRPCServer(NewLabelService(p, nil, 3, nil), nil)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewLabelServiceClient(conn), conn
}

func TestExtractLabels(t *testing.T) {
	fp := &fakePipeline{}
	client, _ := startServer(t, fp)

	req, err := ImagesRequest([][]byte{[]byte("Margaux"), []byte(" "), []byte("Sassicaia")}, nil)
	require.NoError(t, err)

	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDHeader, "rid-123")
	var header metadata.MD
	resp, err := client.ExtractLabels(ctx, req, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"rid-123"}, header.Get(RequestIDHeader))
	assert.Equal(t, "rid-123", fp.rid)

	out, err := DecodeResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "rid-123", out.RequestID)
	require.Len(t, out.Results, 3)
	assert.Equal(t, "Margaux", out.Results[0].Record.Name)
	assert.Equal(t, []string{"Merlot"}, out.Results[0].Record.GrapeVarieties)
	assert.Equal(t, 70, out.Results[0].Record.Confidence)
	assert.Equal(t, constants.StateFailed, out.Results[1].State)
	assert.Nil(t, out.Results[1].Record)
	assert.Equal(t, 2, out.Results[2].Index)
	assert.Equal(t, constants.StateFinalized, out.Results[2].State)
	assert.Equal(t, []byte(" "), fp.images[1])
}

func TestExtractLabels_Validation(t *testing.T) {
	client, _ := startServer(t, &fakePipeline{})

	cases := map[string]*structpb.Struct{
		"missing images": {},
		"too many":       mustImages(t, [][]byte{{1}, {2}, {3}, {4}}),
		"empty image":    mustImages(t, [][]byte{{}}),
		"not base64":     mustStruct(t, map[string]any{"images": []any{"%%%"}}),
		"not a string":   mustStruct(t, map[string]any{"images": []any{42.0}}),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := client.ExtractLabels(context.Background(), req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestExtractLabels_ServiceUnavailable(t *testing.T) {
	client, _ := startServer(t, &fakePipeline{err: common.NewServiceUnavailableError("vision", "missing api key")})

	_, err := client.ExtractLabels(context.Background(), mustImages(t, [][]byte{[]byte("x")}))
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestParseTexts(t *testing.T) {
	fp := &fakePipeline{}
	client, _ := startServer(t, fp)

	req := mustStruct(t, map[string]any{"texts": []any{
		"CHÂTEAU MARGAUX",
		map[string]any{"text": "", "language": "fr"},
	}})
	resp, err := client.ParseTexts(context.Background(), req)
	require.NoError(t, err)

	out, err := DecodeResponse(resp)
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.NotEmpty(t, out.RequestID)
	assert.Equal(t, "CHÂTEAU MARGAUX", out.Results[0].Record.Name)
	assert.Nil(t, out.Results[1].Record)
	assert.Equal(t, constants.StateFailed, out.Results[1].State)
	assert.Equal(t, "recognition", out.Results[1].ErrorKind)
	assert.Equal(t, "fr", fp.texts[1].Language)
}

func TestParseTextsRequestHelper(t *testing.T) {
	req, err := TextsRequest([]entity.RawRecognition{{Text: "a", Language: "it"}, {Text: "b"}})
	require.NoError(t, err)
	texts, err := decodeTexts(req, 5)
	require.NoError(t, err)
	assert.Equal(t, []entity.RawRecognition{{Index: 0, Text: "a", Language: "it"}, {Index: 1, Text: "b"}}, texts)
}

func TestExportLabels(t *testing.T) {
	client, _ := startServer(t, &fakePipeline{})

	req, err := ImagesRequest([][]byte{[]byte("Margaux")}, []string{"margaux.jpg"})
	require.NoError(t, err)
	resp, err := client.ExportLabels(context.Background(), req)
	require.NoError(t, err)

	out, err := DecodeResponse(resp)
	require.NoError(t, err)
	require.NotEmpty(t, out.XLSX)

	f, err := excelize.OpenReader(bytes.NewReader(out.XLSX))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Labels")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "margaux.jpg", rows[1][1])
}

func TestHealth(t *testing.T) {
	_, conn := startServer(t, &fakePipeline{})

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestResultFromOutcome_ErrorKinds(t *testing.T) {
	fb := entity.FallbackRecord()
	r := ResultFromOutcome(pipeline.Outcome{Record: &fb, Err: common.NewExtractionError("no JSON object in response", "", nil)})
	assert.Equal(t, "extraction", r.ErrorKind)
	assert.Equal(t, []constants.ImageState{}, r.Trail)

	r = ResultFromOutcome(pipeline.Outcome{})
	assert.Empty(t, r.Error)
}

func mustImages(t *testing.T, images [][]byte) *structpb.Struct {
	t.Helper()
	s, err := ImagesRequest(images, nil)
	require.NoError(t, err)
	return s
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}
