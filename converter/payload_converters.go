// The MIT License
//
// Copyright (c) 2020 Temporal Technologies Inc.  All rights reserved.
//
// Copyright (c) 2020 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package converter

import (
	"encoding/json"
	"fmt"
	"reflect"

	commonpb "go.temporal.io/api/common/v1"
)

type (
	// NilPayloadConverter handles nil interface{} and typed nil pointer/slice/map values.
	NilPayloadConverter struct{}

	// ByteSlicePayloadConverter passes []byte values through unmodified.
	ByteSlicePayloadConverter struct{}

	// JSONPayloadConverter is the catch-all converter: anything not handled
	// by a more specific converter is marshaled with encoding/json.
	JSONPayloadConverter struct{}
)

// NewNilPayloadConverter creates a new NilPayloadConverter.
func NewNilPayloadConverter() *NilPayloadConverter {
	return &NilPayloadConverter{}
}

func isInterfaceNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

func (c *NilPayloadConverter) ToPayload(value interface{}) (*commonpb.Payload, error) {
	if !isInterfaceNil(value) {
		return nil, nil
	}
	return newPayload(nil, c), nil
}

func (c *NilPayloadConverter) FromPayload(payload *commonpb.Payload, valuePtr interface{}) error {
	value := reflect.ValueOf(valuePtr).Elem()
	if !value.CanSet() {
		return fmt.Errorf("type %T: %w", valuePtr, ErrUnableToSetValue)
	}
	value.Set(reflect.Zero(value.Type()))
	return nil
}

func (c *NilPayloadConverter) ToString(payload *commonpb.Payload) string {
	return "nil"
}

func (c *NilPayloadConverter) Encoding() string {
	return MetadataEncodingNull
}

// NewByteSlicePayloadConverter creates a new ByteSlicePayloadConverter.
func NewByteSlicePayloadConverter() *ByteSlicePayloadConverter {
	return &ByteSlicePayloadConverter{}
}

func (c *ByteSlicePayloadConverter) ToPayload(value interface{}) (*commonpb.Payload, error) {
	data, ok := value.([]byte)
	if !ok {
		return nil, nil
	}
	return newPayload(data, c), nil
}

func (c *ByteSlicePayloadConverter) FromPayload(payload *commonpb.Payload, valuePtr interface{}) error {
	value := reflect.ValueOf(valuePtr).Elem()
	if !value.CanSet() {
		return fmt.Errorf("type %T: %w", valuePtr, ErrUnableToSetValue)
	}
	value.SetBytes(payload.GetData())
	return nil
}

func (c *ByteSlicePayloadConverter) ToString(payload *commonpb.Payload) string {
	return string(payload.GetData())
}

func (c *ByteSlicePayloadConverter) Encoding() string {
	return MetadataEncodingRaw
}

// NewJSONPayloadConverter creates a new JSONPayloadConverter.
func NewJSONPayloadConverter() *JSONPayloadConverter {
	return &JSONPayloadConverter{}
}

func (c *JSONPayloadConverter) ToPayload(value interface{}) (*commonpb.Payload, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToEncode, err)
	}
	return newPayload(data, c), nil
}

func (c *JSONPayloadConverter) FromPayload(payload *commonpb.Payload, valuePtr interface{}) error {
	if err := json.Unmarshal(payload.GetData(), valuePtr); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToDecode, err)
	}
	return nil
}

func (c *JSONPayloadConverter) ToString(payload *commonpb.Payload) string {
	return string(payload.GetData())
}

func (c *JSONPayloadConverter) Encoding() string {
	return MetadataEncodingJSON
}
