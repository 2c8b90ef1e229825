// capture-normalize 读取一个 JSON/YAML 值，规范化后编码输出。
//
//	capture-normalize --input event.json --format cbor --compress zstd > event.cbor.zst
//
// --batch 模式下输入必须是数组，每个元素独立规范化，输出为长度前缀帧序列。
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lk2023060901/capture-go/application"
	"github.com/lk2023060901/capture-go/internal/codec"
	"github.com/lk2023060901/capture-go/internal/compressor"
	"github.com/lk2023060901/capture-go/internal/framer"
	"github.com/lk2023060901/capture-go/internal/json"
	"github.com/lk2023060901/capture-go/pkg/log"
	"github.com/lk2023060901/capture-go/pkg/serializer"
	"github.com/lk2023060901/capture-go/pkg/util/conc"
	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

// flagKeys 将命令行参数映射到配置 key。
var flagKeys = map[string]string{
	"max-depth":         "serializer.max_depth",
	"max-breadth":       "serializer.max_breadth",
	"max-string-length": "serializer.max_string_length",
	"max-size":          "serializer.max_size",
	"repr-strings":      "serializer.should_repr_strings",
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("capture-normalize", pflag.ContinueOnError)
	fs.String("config", "", "config file path (default ./config.yaml)")
	input := fs.StringP("input", "i", "-", "input file, - for stdin")
	format := fs.StringP("format", "f", codec.FormatJSON, "output format: json, cbor or proto")
	compress := fs.StringP("compress", "c", compressor.NameNone, "output compression: none or zstd")
	fs.Int("max-depth", serializer.DefaultMaxDepth, "maximum nesting depth")
	fs.Int("max-breadth", serializer.DefaultMaxBreadth, "maximum entries per container")
	fs.Int("max-string-length", serializer.DefaultMaxStringLength, "maximum string length in characters, 0 for unlimited")
	fs.Int("max-size", serializer.DefaultMaxSize, "approximate output size budget in bytes, 0 for unlimited")
	fs.Bool("repr-strings", false, "render every scalar through its textual representation")
	batch := fs.Bool("batch", false, "normalize each element of an input array and write length-prefixed frames")
	workers := fs.Int("workers", runtime.GOMAXPROCS(0), "batch worker count")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app := application.New(args)
	for name, key := range flagKeys {
		app.BindFlag(key, fs.Lookup(name))
	}
	if err := app.Run(); err != nil {
		return err
	}
	defer log.Sync()

	data, err := readInput(*input, stdin)
	if err != nil {
		return err
	}
	value, err := decodeInput(*input, data)
	if err != nil {
		return err
	}

	c, err := codec.New(*format)
	if err != nil {
		return err
	}
	comp, err := compressor.New(*compress)
	if err != nil {
		return err
	}
	if closer, ok := comp.(interface{ Close() }); ok {
		defer closer.Close()
	}

	if *batch {
		return writeBatch(app, value, c, comp, *workers, stdout)
	}

	packet, err := encodePacket(c, comp, app.Serializer().Serialize(value))
	if err != nil {
		return err
	}
	app.Logger("cmd").Debug("value normalized",
		zap.String("format", c.Name()),
		zap.String("compress", comp.Name()),
		zap.Int("written", len(packet)))

	if _, err := stdout.Write(packet); err != nil {
		return merr.WrapErrIoFailed("stdout", err)
	}
	return nil
}

func writeBatch(app *application.Application, value any, c codec.Codec, comp compressor.Compressor, workers int, w io.Writer) error {
	values, ok := value.([]any)
	if !ok {
		return merr.WrapErrParameterInvalidMsg("batch input must be an array, got %T", value)
	}

	pool := conc.NewPool[any](workers)
	defer pool.Release()
	results, err := app.Serializer().SerializeAll(context.Background(), values, pool)
	if err != nil {
		return err
	}

	f := framer.NewLengthPrefixedFramer(0)
	for _, normalized := range results {
		packet, err := encodePacket(c, comp, normalized)
		if err != nil {
			return err
		}
		if err := f.WriteFrame(w, packet); err != nil {
			return err
		}
	}
	app.Logger("cmd").Debug("batch normalized",
		zap.Int("values", len(results)),
		zap.String("format", c.Name()),
		zap.String("compress", comp.Name()))
	return nil
}

func encodePacket(c codec.Codec, comp compressor.Compressor, normalized any) ([]byte, error) {
	payload, err := codec.Encode(c, normalized)
	if err != nil {
		return nil, err
	}
	packet, err := comp.Compress(nil, payload)
	if err != nil {
		return nil, merr.WrapErrCompressFailed(comp.Name(), err)
	}
	return packet, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" || path == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, merr.WrapErrIoFailed("stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, merr.WrapErrIoFailed(path, err)
	}
	return data, nil
}

// decodeInput 按扩展名解码 YAML，其余按 JSON 解码；JSON 对象（包括嵌套对象）保留键顺序。
func decodeInput(path string, data []byte) (any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, merr.WrapErrDecodeFailed("yaml", err)
		}
		return v, nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, merr.WrapErrDecodeFailed(codec.FormatJSON, errors.New("empty input"))
	}
	if !json.Valid(trimmed) {
		return nil, merr.WrapErrDecodeFailed(codec.FormatJSON, errors.New("invalid JSON"))
	}
	raw, dataType, _, err := jsonparser.Get(trimmed)
	if err != nil {
		return nil, merr.WrapErrDecodeFailed(codec.FormatJSON, err)
	}
	v, err := orderedValue(raw, dataType)
	if err != nil {
		return nil, merr.WrapErrDecodeFailed(codec.FormatJSON, err)
	}
	return v, nil
}

// orderedValue 将 jsonparser 给出的原始值转换为 Go 值，对象转换为 *serializer.Map，数字转换为 float64。
func orderedValue(raw []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.Object:
		m := serializer.NewMap()
		err := jsonparser.ObjectEach(raw, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
			child, err := orderedValue(value, dt)
			if err != nil {
				return err
			}
			m.Set(string(key), child)
			return nil
		})
		return m, err
	case jsonparser.Array:
		list := make([]any, 0)
		var inner error
		_, err := jsonparser.ArrayEach(raw, func(value []byte, dt jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			child, err := orderedValue(value, dt)
			if err != nil {
				inner = err
				return
			}
			list = append(list, child)
		})
		if err == nil {
			err = inner
		}
		return list, err
	case jsonparser.String:
		return jsonparser.ParseString(raw)
	case jsonparser.Number:
		return jsonparser.ParseFloat(raw)
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(raw)
	case jsonparser.Null:
		return nil, nil
	default:
		return nil, errors.Newf("unexpected JSON value type %s", dataType)
	}
}
