// Package schema 對取出的 JSON 做結構驗證（必填、型別、列舉、陣列下限）。
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"recipe-scanner/internal/pkg/common"

	"github.com/go-playground/validator/v10"
)

// Result 驗證結果
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Err 將失敗結果轉為 ValidationError，成功時回傳 nil
func (r Result) Err(kind Kind) error {
	if r.Valid {
		return nil
	}
	return &common.ValidationError{Shape: string(kind), Errors: r.Errors}
}

type valueType int

const (
	typeNull valueType = iota
	typeString
	typeNumber
	typeBool
	typeArray
	typeObject
)

var typeNames = map[valueType]string{
	typeNull:   "null",
	typeString: "string",
	typeNumber: "number",
	typeBool:   "boolean",
	typeArray:  "array",
	typeObject: "object",
}

// field 單一欄位規則
type field struct {
	names    []string // 可接受的鍵名，第一個用於訊息
	required bool
	types    []valueType
	tag      string   // validator 標籤，例如 min=1、email
	enum     []string // 列舉值
	fold     bool     // 列舉比對不分大小寫
	items    *field   // 陣列元素規則
	fields   []field  // 物件欄位規則
}

var validate = validator.New()

// Validate 以指定形狀驗證 payload，永不 panic
func Validate(payload map[string]any, kind Kind) Result {
	shape, ok := shapes[kind]
	if !ok {
		return Result{Errors: []string{fmt.Sprintf("unknown shape kind %q", kind)}}
	}
	if payload == nil {
		return Result{Errors: []string{"payload is empty"}}
	}

	var errs []string
	shape.check("", map[string]any(payload), &errs)
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func (f *field) check(path string, v any, errs *[]string) {
	t := typeOf(v)
	if !f.accepts(t) {
		*errs = append(*errs, fmt.Sprintf("invalid type at %s: expected %s", display(path), f.expected()))
		return
	}

	if f.tag != "" {
		f.checkTag(path, t, v, errs)
	}
	if len(f.enum) > 0 && t == typeString {
		f.checkEnum(path, v.(string), errs)
	}

	switch t {
	case typeArray:
		if f.items == nil {
			return
		}
		for i, item := range v.([]any) {
			f.items.check(fmt.Sprintf("%s[%d]", path, i), item, errs)
		}
	case typeObject:
		obj := v.(map[string]any)
		for i := range f.fields {
			child := &f.fields[i]
			name, value, ok := child.lookup(obj)
			if !ok {
				if child.required {
					*errs = append(*errs, "missing required field: "+join(path, child.names[0]))
				}
				continue
			}
			child.check(join(path, name), value, errs)
		}
	}
}

// lookup 依序尋找第一個非空的鍵；全部為空時回傳第一個非 null 的鍵，讓長度規則回報錯誤
func (f *field) lookup(obj map[string]any) (string, any, bool) {
	fallback := ""
	for _, name := range f.names {
		v, ok := obj[name]
		if !ok || v == nil {
			continue
		}
		if !isEmpty(v) {
			return name, v, true
		}
		if fallback == "" {
			fallback = name
		}
	}
	if fallback != "" {
		return fallback, obj[fallback], true
	}
	return "", nil, false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func (f *field) accepts(t valueType) bool {
	for _, allowed := range f.types {
		if allowed == t {
			return true
		}
	}
	return false
}

func (f *field) expected() string {
	names := make([]string, len(f.types))
	for i, t := range f.types {
		names[i] = typeNames[t]
	}
	return strings.Join(names, " or ")
}

func (f *field) checkTag(path string, t valueType, v any, errs *[]string) {
	err := validate.Var(v, f.tag)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		*errs = append(*errs, fmt.Sprintf("invalid value at %s: %v", display(path), err))
		return
	}
	for _, fe := range fieldErrs {
		*errs = append(*errs, tagMessage(display(path), t, fe.Tag(), fe.Param()))
	}
}

func (f *field) checkEnum(path, value string, errs *[]string) {
	if f.fold {
		value = strings.ToLower(strings.TrimSpace(value))
	}
	for _, allowed := range f.enum {
		if value == allowed {
			return
		}
	}
	*errs = append(*errs, fmt.Sprintf("invalid value at %s: must be one of %s", display(path), strings.Join(f.enum, ", ")))
}

func tagMessage(path string, t valueType, tag, param string) string {
	switch tag {
	case "min":
		if t == typeArray {
			return fmt.Sprintf("%s must contain at least %s item(s)", path, param)
		}
		return fmt.Sprintf("%s must be at least %s character(s) long", path, param)
	case "email":
		return fmt.Sprintf("invalid value at %s: must be a valid email address", path)
	}
	return fmt.Sprintf("invalid value at %s: failed %s", path, tag)
}

func typeOf(v any) valueType {
	switch v.(type) {
	case nil:
		return typeNull
	case string:
		return typeString
	case json.Number, float64, float32, int, int32, int64:
		return typeNumber
	case bool:
		return typeBool
	case []any:
		return typeArray
	case map[string]any:
		return typeObject
	}
	return typeNull
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func display(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
