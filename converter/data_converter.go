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

// Package converter turns workflow/activity arguments and results into the
// commonpb.Payload wire representation replayed history events carry, and
// back. History events never hold typed Go values, only payload bytes plus
// an encoding tag, so every value that crosses the replay boundary goes
// through a DataConverter first.
package converter

import (
	"errors"
	"fmt"

	commonpb "go.temporal.io/api/common/v1"
)

const (
	// MetadataEncoding is the Payload metadata key carrying the encoding tag.
	MetadataEncoding = "encoding"
	// MetadataEncodingNull marks a payload produced from a nil value.
	MetadataEncodingNull = "binary/null"
	// MetadataEncodingRaw marks a payload whose data is an unmodified []byte.
	MetadataEncodingRaw = "binary/plain"
	// MetadataEncodingJSON marks a payload produced by encoding/json.
	MetadataEncodingJSON = "json/plain"
	// MetadataEncodingProtoJSON marks a payload produced by ProtoJSONPayloadConverter.
	MetadataEncodingProtoJSON = "json/protobuf"
)

var (
	// ErrUnableToEncode is returned when a PayloadConverter fails to encode a value.
	ErrUnableToEncode = errors.New("unable to encode")
	// ErrUnableToDecode is returned when a PayloadConverter fails to decode a payload.
	ErrUnableToDecode = errors.New("unable to decode")
	// ErrUnableToSetValue is returned when the destination value is not settable.
	ErrUnableToSetValue = errors.New("unable to set value")
	// ErrValueIsNotPointer is returned when FromPayload is given a non-pointer destination.
	ErrValueIsNotPointer = errors.New("value is not pointer")
	// ErrValueDoesntImplementProtoMessage is returned when FromPayload's destination
	// is neither a google.golang.org/protobuf nor a gogo/protobuf message.
	ErrValueDoesntImplementProtoMessage = errors.New("value doesn't implement proto.Message")
	// ErrNoPayloadConverter is returned when no registered PayloadConverter
	// declares the encoding a Payload was tagged with.
	ErrNoPayloadConverter = errors.New("no payload converter for encoding")
)

type (
	// PayloadConverter converts a single Go value to/from a Payload.
	PayloadConverter interface {
		// ToPayload converts a single value to a payload. Returns nil, nil if
		// this converter cannot handle the value (e.g. it isn't a proto.Message).
		ToPayload(value interface{}) (*commonpb.Payload, error)
		// FromPayload converts a single payload back into valuePtr.
		FromPayload(payload *commonpb.Payload, valuePtr interface{}) error
		// ToString renders a payload this converter produced as a human readable string.
		ToString(payload *commonpb.Payload) string
		// Encoding returns the MetadataEncoding tag this converter owns.
		Encoding() string
	}

	// DataConverter serializes/deserializes activity and workflow
	// arguments and results that cross the replay boundary. Set it on
	// ClientOptions to change the wire encoding for an entire client, or
	// scope it to a single workflow/activity context via WithValue.
	DataConverter interface {
		// ToPayload converts a single value to a payload.
		ToPayload(value interface{}) (*commonpb.Payload, error)
		// ToPayloads converts a list of values to payloads.
		ToPayloads(value ...interface{}) (*commonpb.Payloads, error)
		// FromPayload converts a single payload back into valuePtr.
		FromPayload(payload *commonpb.Payload, valuePtr interface{}) error
		// FromPayloads converts payloads back into valuePtrs, positionally,
		// stopping once either list is exhausted.
		FromPayloads(payloads *commonpb.Payloads, valuePtrs ...interface{}) error
		// ToString renders a single payload as a human readable string.
		ToString(payload *commonpb.Payload) string
		// ToStrings renders a list of payloads as human readable strings.
		ToStrings(payloads *commonpb.Payloads) []string
		// WithValue returns a DataConverter carrying v as additional state,
		// for converters that vary their behavior per workflow/activity
		// context (e.g. tagging encoded output with a caller identity).
		// Implementations that carry no such state may return themselves.
		WithValue(v interface{}) DataConverter
	}

	// CompositeDataConverter delegates to an ordered list of
	// PayloadConverters: ToPayload tries each in turn until one claims the
	// value, FromPayload dispatches by the payload's encoding tag.
	CompositeDataConverter struct {
		converters []PayloadConverter
		byEncoding map[string]PayloadConverter
	}
)

// NewCompositeDataConverter builds a DataConverter out of PayloadConverters,
// tried in the order given for encoding and dispatched by encoding tag for
// decoding. Put narrower converters (nil, []byte, proto) before the
// catch-all JSON converter.
func NewCompositeDataConverter(converters ...PayloadConverter) DataConverter {
	byEncoding := make(map[string]PayloadConverter, len(converters))
	for _, c := range converters {
		byEncoding[c.Encoding()] = c
	}
	return &CompositeDataConverter{converters: converters, byEncoding: byEncoding}
}

func newPayload(data []byte, c PayloadConverter) *commonpb.Payload {
	return &commonpb.Payload{
		Metadata: map[string][]byte{MetadataEncoding: []byte(c.Encoding())},
		Data:     data,
	}
}

func (dc *CompositeDataConverter) ToPayload(value interface{}) (*commonpb.Payload, error) {
	for _, c := range dc.converters {
		payload, err := c.ToPayload(value)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			return payload, nil
		}
	}
	return nil, fmt.Errorf("value %v of type %T: %w", value, value, ErrUnableToEncode)
}

func (dc *CompositeDataConverter) ToPayloads(values ...interface{}) (*commonpb.Payloads, error) {
	if len(values) == 0 {
		return nil, nil
	}
	result := &commonpb.Payloads{}
	for i, value := range values {
		payload, err := dc.ToPayload(value)
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		result.Payloads = append(result.Payloads, payload)
	}
	return result, nil
}

func (dc *CompositeDataConverter) converterFor(payload *commonpb.Payload) (PayloadConverter, error) {
	encoding, ok := payload.GetMetadata()[MetadataEncoding]
	if !ok {
		return nil, errors.New("payload metadata is missing the encoding key")
	}
	c, ok := dc.byEncoding[string(encoding)]
	if !ok {
		return nil, fmt.Errorf("encoding %s: %w", encoding, ErrNoPayloadConverter)
	}
	return c, nil
}

func (dc *CompositeDataConverter) FromPayload(payload *commonpb.Payload, valuePtr interface{}) error {
	c, err := dc.converterFor(payload)
	if err != nil {
		return err
	}
	return c.FromPayload(payload, valuePtr)
}

func (dc *CompositeDataConverter) FromPayloads(payloads *commonpb.Payloads, valuePtrs ...interface{}) error {
	if payloads == nil {
		return nil
	}
	for i, payload := range payloads.GetPayloads() {
		if i >= len(valuePtrs) {
			break
		}
		if err := dc.FromPayload(payload, valuePtrs[i]); err != nil {
			return fmt.Errorf("payload item %d: %w", i, err)
		}
	}
	return nil
}

func (dc *CompositeDataConverter) ToString(payload *commonpb.Payload) string {
	c, err := dc.converterFor(payload)
	if err != nil {
		return err.Error()
	}
	return c.ToString(payload)
}

func (dc *CompositeDataConverter) ToStrings(payloads *commonpb.Payloads) []string {
	var result []string
	for _, payload := range payloads.GetPayloads() {
		result = append(result, dc.ToString(payload))
	}
	return result
}

// WithValue returns dc unchanged: the composite converter carries no
// per-context state of its own. Converters that do (see stateful wrappers)
// override this.
func (dc *CompositeDataConverter) WithValue(v interface{}) DataConverter {
	return dc
}

// defaultDataConverter is the DataConverter used whenever a client or
// worker is not configured with one explicitly.
var defaultDataConverter DataConverter = NewCompositeDataConverter(
	NewNilPayloadConverter(),
	NewByteSlicePayloadConverter(),
	NewProtoJSONPayloadConverter(),
	NewJSONPayloadConverter(),
)

// GetDefaultDataConverter returns the converter used when none is configured.
func GetDefaultDataConverter() DataConverter {
	return defaultDataConverter
}

// WithValue returns a copy of dc carrying v as additional state. Used to
// scope a DataConverter to a single workflow/activity invocation without
// mutating a shared instance.
func WithValue(dc DataConverter, v interface{}) DataConverter {
	return dc.WithValue(v)
}
