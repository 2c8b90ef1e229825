//go:build amd64 || arm64

package json

import (
	"io"

	"github.com/bytedance/sonic"
)

type sonicAPI struct {
	sonic.API
}

func (a sonicAPI) NewDecoder(r io.Reader) Decoder {
	return a.API.NewDecoder(r)
}

func (a sonicAPI) NewEncoder(w io.Writer) Encoder {
	return a.API.NewEncoder(w)
}

// ConfigStd 与 encoding/json 行为一致：排序 map 键、转义 HTML、校验字符串。
var api = sonicAPI{API: sonic.ConfigStd}
