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

package internal

import (
	"encoding/json"
	"errors"
	"fmt"

	commonpb "go.temporal.io/api/common/v1"

	"durexec.io/sdk/converter"
)

const (
	metadataEncoding    = converter.MetadataEncoding
	metadataEncodingRaw = converter.MetadataEncodingRaw

	metadataName = "name"
)

type (
	// Value is used to encapsulate/extract encoded value from workflow/activity.
	Value interface {
		// HasValue return whether there is value encoded.
		HasValue() bool
		// Get extract the encoded value into strong typed value pointer.
		Get(valuePtr interface{}) error
	}

	// Values is used to encapsulate/extract encoded one or more values from workflow/activity.
	Values interface {
		// HasValues return whether there are values encoded.
		HasValues() bool
		// Get extract the encoded values into strong typed value pointers.
		Get(valuePtr ...interface{}) error
	}

	// DataConverter is used by the framework to serialize/deserialize input and output of activity/workflow
	// that need to be sent over the wire.
	// To encode/decode workflow arguments, one should set DataConverter in for Client, through client.Options.
	// To encode/decode Activity/ChildWorkflow arguments, one should set DataConverter in two places:
	//   1. Inside workflow code, use workflow.WithDataConverter to create new Context,
	// and pass that context to ExecuteActivity/ExecuteChildWorkflow calls.
	// Temporal support using different DataConverters for different activity/childWorkflow in same workflow.
	//   2. Activity/Workflow worker that run these activity/childWorkflow, through cleint.Options.
	DataConverter interface {
		// ToData implements conversion of a list of values.
		ToData(value ...interface{}) (*commonpb.Payloads, error)
		// FromData implements conversion of an array of values of different types.
		// Useful for deserializing arguments of function invocations.
		FromData(input *commonpb.Payloads, valuePtrs ...interface{}) error
	}

	// defaultDataConverter adapts converter.DataConverter (the wire codec
	// shared with the converter package's proto/JSON/raw/nil payload
	// converters) onto this package's variadic DataConverter shape.
	defaultDataConverter struct {
		delegate converter.DataConverter
	}
)

var (
	// DefaultDataConverter is default data converter used by Temporal worker.
	DefaultDataConverter DataConverter = &defaultDataConverter{delegate: converter.GetDefaultDataConverter()}

	// ErrUnableToEncodeJSON is returned when unable to encode to JSON.
	ErrUnableToEncodeJSON = errors.New("unable to encode to JSON")
	// ErrUnableToDecodeJSON is returned when unable to decode JSON.
	ErrUnableToDecodeJSON = errors.New("unable to decode JSON")
)

// getDefaultDataConverter return default data converter used by Temporal worker.
func getDefaultDataConverter() DataConverter {
	return DefaultDataConverter
}

// encodedValue backs newEncodedValue: raw bytes decoded through a
// DataConverter on demand, rather than eagerly, so callers that never call
// Get never pay the decode cost (e.g. a query result nobody inspects).
type encodedValue struct {
	value         []byte
	dataConverter DataConverter
}

// newEncodedValue wraps data (already one Payload's worth of bytes) for
// later decoding. A nil dataConverter falls back to DefaultDataConverter,
// matching NewClient's own default.
func newEncodedValue(data []byte, dataConverter DataConverter) Value {
	if dataConverter == nil {
		dataConverter = DefaultDataConverter
	}
	return &encodedValue{value: data, dataConverter: dataConverter}
}

func (b *encodedValue) HasValue() bool {
	return b.value != nil
}

func (b *encodedValue) Get(valuePtr interface{}) error {
	if !b.HasValue() {
		return errors.New("value not set")
	}
	return b.dataConverter.FromData(&commonpb.Payloads{Payloads: []*commonpb.Payload{{Data: b.value, Metadata: map[string][]byte{metadataEncoding: []byte(metadataEncodingRaw)}}}}, valuePtr)
}

// encodedValues is the Values analogue of encodedValue, decoding several
// positional arguments out of one payload set (e.g. RecordActivityHeartbeat
// details, workflow start arguments).
type encodedValues struct {
	values        []byte
	dataConverter DataConverter
}

func newEncodedValues(values []byte, dataConverter DataConverter) Values {
	if dataConverter == nil {
		dataConverter = DefaultDataConverter
	}
	return &encodedValues{values: values, dataConverter: dataConverter}
}

func (b *encodedValues) HasValues() bool {
	return b.values != nil
}

// rawPayloads exposes the already-encoded Payloads this wrapper holds, so
// callers re-transmitting it (e.g. Client.CompleteActivity forwarding a
// CanceledError's details back to the service) don't need to decode and
// re-encode through valuePtrs first.
func (b *encodedValues) rawPayloads() (*commonpb.Payloads, error) {
	var payloads commonpb.Payloads
	if err := json.Unmarshal(b.values, &payloads); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToDecodeJSON, err)
	}
	return &payloads, nil
}

func (b *encodedValues) Get(valuePtrs ...interface{}) error {
	if !b.HasValues() {
		return errors.New("value not set")
	}
	var payloads commonpb.Payloads
	if err := json.Unmarshal(b.values, &payloads); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToDecodeJSON, err)
	}
	return b.dataConverter.FromData(&payloads, valuePtrs...)
}

// wrapRawPayload wraps data (this engine's []byte wire convention for
// activity/workflow input and results, the same shape Command/HistoryEvent
// Attributes carry) as a single-Payload commonpb.Payloads, the shape
// RespondActivityTaskCompleted and friends exchange with ServiceClient.
func wrapRawPayload(data []byte) *commonpb.Payloads {
	if data == nil {
		return &commonpb.Payloads{}
	}
	return &commonpb.Payloads{Payloads: []*commonpb.Payload{{
		Data:     data,
		Metadata: map[string][]byte{metadataEncoding: []byte(metadataEncodingRaw)},
	}}}
}

// unwrapRawPayload reverses wrapRawPayload; nil/empty input yields nil.
func unwrapRawPayload(p *commonpb.Payloads) []byte {
	if p == nil || len(p.Payloads) == 0 {
		return nil
	}
	return p.Payloads[0].Data
}

// ToData converts a list of values to a single Payloads, delegating the
// per-value wire encoding to the shared converter.DataConverter.
func (dc *defaultDataConverter) ToData(values ...interface{}) (*commonpb.Payloads, error) {
	payloads, err := dc.delegate.ToPayloads(values...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToEncodeJSON, err)
	}
	return payloads, nil
}

func (dc *defaultDataConverter) FromData(payloads *commonpb.Payloads, valuePtrs ...interface{}) error {
	if err := dc.delegate.FromPayloads(payloads, valuePtrs...); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToDecodeJSON, err)
	}
	return nil
}
