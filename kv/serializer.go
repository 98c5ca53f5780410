package kv

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

type Serializer[T any] interface {
	Serialize(from T) ([]byte, error)
	Deserialize(data []byte) (T, error)
}

// NewSerializer name 为 json 或 msgpack，为空时使用 msgpack
func NewSerializer[T any](name string) (Serializer[T], error) {
	switch name {
	case "", "msgpack":
		return &MsgPackSerializer[T]{}, nil
	case "json":
		return &JSONSerializer[T]{}, nil
	}
	return nil, errors.Errorf("unknown serializer [%s]", name)
}

type JSONSerializer[T any] struct{}

func (s *JSONSerializer[T]) Serialize(from T) ([]byte, error) {
	return json.Marshal(from)
}

func (s *JSONSerializer[T]) Deserialize(data []byte) (T, error) {
	var result T
	err := json.Unmarshal(data, &result)
	return result, err
}

type MsgPackSerializer[T any] struct{}

func (s *MsgPackSerializer[T]) Serialize(from T) ([]byte, error) {
	return msgpack.Marshal(from)
}

func (s *MsgPackSerializer[T]) Deserialize(data []byte) (T, error) {
	var result T
	err := msgpack.Unmarshal(data, &result)
	return result, err
}
