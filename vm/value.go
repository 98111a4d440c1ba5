// Package vm implements the operand stack and single-frame bytecode
// executor.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package vm

import (
	"encoding/json"
	"fmt"
)

// Value is the tagged union every stack slot carries, the same
// Kind-discriminated-struct idiom used by planner.PlanOperation and
// wasm.ImportKind.
type Value struct {
	Kind string // "Int64" | "Float64" | "String" | "Bool" | "Null" | "Json" | "DocumentID" | "Collection"

	Int64      int64
	Float64    float64
	Str        string
	Bool       bool
	JSON       json.RawMessage
	DocumentID string
	Collection string
}

func Int64Value(v int64) Value          { return Value{Kind: "Int64", Int64: v} }
func Float64Value(v float64) Value      { return Value{Kind: "Float64", Float64: v} }
func StringValue(v string) Value        { return Value{Kind: "String", Str: v} }
func BoolValue(v bool) Value            { return Value{Kind: "Bool", Bool: v} }
func NullValue() Value                  { return Value{Kind: "Null"} }
func JSONValue(v json.RawMessage) Value { return Value{Kind: "Json", JSON: v} }
func DocumentIDValue(v string) Value    { return Value{Kind: "DocumentID", DocumentID: v} }
func CollectionValue(v string) Value    { return Value{Kind: "Collection", Collection: v} }

// TypeName returns the value's runtime type name.
func (v Value) TypeName() string {
	switch v.Kind {
	case "Int64":
		return "int64"
	case "Float64":
		return "float64"
	case "String":
		return "string"
	case "Bool":
		return "bool"
	case "Null":
		return "null"
	case "Json":
		return "json"
	case "DocumentID":
		return "document_id"
	case "Collection":
		return "collection"
	default:
		return "unknown"
	}
}

// IsTruthy evaluates the value for conditional branch opcodes.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case "Bool":
		return v.Bool
	case "Int64":
		return v.Int64 != 0
	case "Float64":
		return v.Float64 != 0
	case "String":
		return v.Str != ""
	case "Null":
		return false
	case "Json":
		return string(v.JSON) != "null" && len(v.JSON) > 0
	case "DocumentID":
		return v.DocumentID != ""
	case "Collection":
		return v.Collection != ""
	default:
		return false
	}
}

// AsInt64 converts to int64 where a reasonable coercion exists.
func (v Value) AsInt64() (int64, bool) {
	switch v.Kind {
	case "Int64":
		return v.Int64, true
	case "Float64":
		return int64(v.Float64), true
	case "Bool":
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsFloat64 converts to float64 where a reasonable coercion exists.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case "Float64":
		return v.Float64, true
	case "Int64":
		return float64(v.Int64), true
	default:
		return 0, false
	}
}

// AsString converts to string for the kinds that are already string-like.
func (v Value) AsString() (string, bool) {
	switch v.Kind {
	case "String":
		return v.Str, true
	case "DocumentID":
		return v.DocumentID, true
	case "Collection":
		return v.Collection, true
	default:
		return "", false
	}
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.Kind {
	case "Int64":
		return fmt.Sprintf("%d", v.Int64)
	case "Float64":
		return fmt.Sprintf("%v", v.Float64)
	case "String":
		return fmt.Sprintf("%q", v.Str)
	case "Bool":
		return fmt.Sprintf("%v", v.Bool)
	case "Null":
		return "null"
	case "Json":
		return string(v.JSON)
	case "DocumentID":
		return "doc:" + v.DocumentID
	case "Collection":
		return "col:" + v.Collection
	default:
		return "unknown"
	}
}
