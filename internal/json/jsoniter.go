//go:build !amd64 && !arm64

package json

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

type jsoniterAPI struct {
	jsoniter.API
}

func (a jsoniterAPI) NewDecoder(r io.Reader) Decoder {
	return a.API.NewDecoder(r)
}

func (a jsoniterAPI) NewEncoder(w io.Writer) Encoder {
	return a.API.NewEncoder(w)
}

var api = jsoniterAPI{API: jsoniter.ConfigCompatibleWithStandardLibrary}
