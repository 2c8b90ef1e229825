package codec

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/capture-go/pkg/metrics"
	"github.com/lk2023060901/capture-go/pkg/serializer"
	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

type CodecSuite struct {
	suite.Suite

	normalized any
}

func (s *CodecSuite) SetupTest() {
	out, err := serializer.Serialize(map[string]any{
		"message": []byte("abc\x80"),
		"tags":    map[string]struct{}{"b": {}, "a": {}},
		"count":   3,
	})
	s.Require().NoError(err)
	s.normalized = out
}

func (s *CodecSuite) TestNew() {
	for _, format := range []string{FormatJSON, FormatCBOR, FormatProto} {
		c, err := New(format)
		s.Require().NoError(err)
		s.Equal(format, c.Name())
	}

	_, err := New("xml")
	s.True(errors.Is(err, merr.ErrOperationNotSupported))
}

func (s *CodecSuite) TestJSONKeepsOrder() {
	ordered := serializer.NewMap()
	ordered.Set("z", int64(1))
	ordered.Set("a", []any{"x", nil, true})

	data, err := Encode(JSONCodec{}, ordered)
	s.Require().NoError(err)
	s.JSONEq(`{"z":1,"a":["x",null,true]}`, string(data))
	s.Equal(`{"z":1,"a":["x",null,true]}`, string(data))
}

func (s *CodecSuite) TestJSONRoundTrip() {
	data, err := Encode(JSONCodec{}, s.normalized)
	s.Require().NoError(err)

	var out map[string]any
	s.Require().NoError(Decode(JSONCodec{}, data, &out))
	s.Equal("abc�", out["message"])
	s.Equal([]any{"a", "b"}, out["tags"])
	s.Equal(float64(3), out["count"])
}

func (s *CodecSuite) TestCBORRoundTrip() {
	c, err := NewCBORCodec()
	s.Require().NoError(err)

	before := testutil.CollectAndCount(metrics.EncodedBytes)
	data, err := Encode(c, s.normalized)
	s.Require().NoError(err)
	s.GreaterOrEqual(testutil.CollectAndCount(metrics.EncodedBytes), before)

	again, err := Encode(c, s.normalized)
	s.Require().NoError(err)
	s.Equal(data, again)

	var out map[string]any
	s.Require().NoError(Decode(c, data, &out))
	s.Equal("abc�", out["message"])
	s.Equal([]any{"a", "b"}, out["tags"])
	s.EqualValues(3, out["count"])
}

func (s *CodecSuite) TestProtoRoundTrip() {
	data, err := Encode(ProtoCodec{}, s.normalized)
	s.Require().NoError(err)

	var out any
	s.Require().NoError(Decode(ProtoCodec{}, data, &out))
	m, ok := out.(map[string]any)
	s.Require().True(ok)
	s.Equal("abc�", m["message"])
	s.Equal([]any{"a", "b"}, m["tags"])
	s.Equal(float64(3), m["count"])

	value := &structpb.Value{}
	s.Require().NoError(ProtoCodec{}.Unmarshal(data, value))
	s.NotNil(value.GetStructValue())

	var wrong map[string]any
	s.Error(ProtoCodec{}.Unmarshal(data, &wrong))
}

func (s *CodecSuite) TestDecodeError() {
	var out any
	err := Decode(JSONCodec{}, []byte("{"), &out)
	s.True(errors.Is(err, merr.ErrDecodeFailed))
}

func TestCodec(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}
