package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/pipeline"
)

// Result is the wire form of one pipeline outcome.
type Result struct {
	Index       int                      `json:"index"`
	State       constants.ImageState     `json:"state"`
	Trail       []constants.ImageState   `json:"trail"`
	ContentHash string                   `json:"contentHash,omitempty"`
	Escalated   bool                     `json:"escalated"`
	Cached      bool                     `json:"cached"`
	Record      *entity.ParsedWineRecord `json:"record"`
	Local       *entity.ParsedWineRecord `json:"local,omitempty"`
	Error       string                   `json:"error,omitempty"`
	ErrorKind   string                   `json:"errorKind,omitempty"`
}

// Response is the reply document of every LabelService method.
type Response struct {
	RequestID string   `json:"requestId"`
	Results   []Result `json:"results"`
	XLSX      []byte   `json:"xlsx,omitempty"`
}

func ResultFromOutcome(o pipeline.Outcome) Result {
	r := Result{
		Index:       o.Index,
		State:       o.State,
		Trail:       o.Trail,
		ContentHash: o.ContentHash,
		Escalated:   o.Escalated,
		Cached:      o.Cached,
		Record:      o.Record,
		Local:       o.Local,
	}
	if r.Trail == nil {
		r.Trail = []constants.ImageState{}
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
		r.ErrorKind = errorKind(o.Err)
	}
	return r
}

func ResultsFromOutcomes(outcomes []pipeline.Outcome) []Result {
	out := make([]Result, len(outcomes))
	for i, o := range outcomes {
		out[i] = ResultFromOutcome(o)
	}
	return out
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, common.ErrRecognition):
		return "recognition"
	case errors.Is(err, common.ErrExtraction):
		return "extraction"
	default:
		return "internal"
	}
}

// EncodeResponse converts r into a Struct through its JSON form.
func EncodeResponse(r Response) (*structpb.Struct, error) {
	if r.Results == nil {
		r.Results = []Result{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// DecodeResponse is the inverse of EncodeResponse.
func DecodeResponse(s *structpb.Struct) (Response, error) {
	var r Response
	b, err := s.MarshalJSON()
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("decode response: %w", err)
	}
	return r, nil
}

// ImagesRequest builds an ExtractLabels/ExportLabels request. Names are
// optional file names used in the export.
func ImagesRequest(images [][]byte, names []string) (*structpb.Struct, error) {
	list := make([]any, len(images))
	for i, img := range images {
		list[i] = base64.StdEncoding.EncodeToString(img)
	}
	m := map[string]any{"images": list}
	if len(names) > 0 {
		ns := make([]any, len(names))
		for i, n := range names {
			ns[i] = n
		}
		m["names"] = ns
	}
	return structpb.NewStruct(m)
}

// TextsRequest builds a ParseTexts request.
func TextsRequest(texts []entity.RawRecognition) (*structpb.Struct, error) {
	list := make([]any, len(texts))
	for i, t := range texts {
		item := map[string]any{"text": t.Text}
		if t.Language != "" {
			item["language"] = t.Language
		}
		list[i] = item
	}
	return structpb.NewStruct(map[string]any{"texts": list})
}

func decodeImages(req *structpb.Struct, maxImages int) ([][]byte, error) {
	values := req.GetFields()["images"].GetListValue().GetValues()
	images := make([][]byte, 0, len(values))
	v := common.NewValidator()
	for i, item := range values {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, common.InvalidArgumentErrorf("images[%d] must be a base64 string", i)
		}
		data, err := base64.StdEncoding.DecodeString(s.StringValue)
		if err != nil {
			return nil, common.InvalidArgumentErrorf("images[%d] is not valid base64", i)
		}
		v.Field(fmt.Sprintf("images[%d].size", i), len(data), common.InRange(1, constants.MaxImageBytes))
		images = append(images, data)
	}
	v.Field("images", images, common.Required, common.MaxItems(maxImages))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	return images, nil
}

func decodeNames(req *structpb.Struct, n int) []string {
	names := make([]string, n)
	for i, item := range req.GetFields()["names"].GetListValue().GetValues() {
		if i >= n {
			break
		}
		names[i] = item.GetStringValue()
	}
	for i := range names {
		if names[i] == "" {
			names[i] = fmt.Sprintf("image-%d", i+1)
		}
	}
	return names
}

// maxTextChars bounds a single ParseTexts entry.
const maxTextChars = 20000

func decodeTexts(req *structpb.Struct, maxItems int) ([]entity.RawRecognition, error) {
	values := req.GetFields()["texts"].GetListValue().GetValues()
	texts := make([]entity.RawRecognition, 0, len(values))
	plain := make([]string, 0, len(values))
	v := common.NewValidator()
	for i, item := range values {
		var raw entity.RawRecognition
		switch k := item.GetKind().(type) {
		case *structpb.Value_StringValue:
			raw.Text = k.StringValue
		case *structpb.Value_StructValue:
			f := k.StructValue.GetFields()
			raw.Text = f["text"].GetStringValue()
			raw.Language = f["language"].GetStringValue()
		default:
			return nil, common.InvalidArgumentErrorf("texts[%d] must be a string or {text, language}", i)
		}
		v.Field(fmt.Sprintf("texts[%d]", i), raw.Text, common.MaxLength(maxTextChars))
		raw.Index = i
		texts = append(texts, raw)
		plain = append(plain, raw.Text)
	}
	v.Field("texts", plain, common.Required, common.MaxItems(maxItems))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	return texts, nil
}
