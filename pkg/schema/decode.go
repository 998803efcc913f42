package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

// DecodeError reports the first field of a payload that does not match
// HeroSchema. Path is dotted, with array indexes in brackets, e.g.
// "appearance.height[1]". "$" denotes the document root.
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode hero: %s: %s", e.Path, e.Reason)
}

// Decode validates data against HeroSchema and returns the hero it holds.
// It is all-or-nothing: on any missing or mistyped field it returns the zero
// Hero and a *DecodeError. Fields not described by the schema are ignored.
func Decode(data []byte) (Hero, error) {
	if !gjson.ValidBytes(data) {
		return Hero{}, &DecodeError{Path: "$", Reason: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)
	if err := checkValue(root, HeroSchema, "$"); err != nil {
		return Hero{}, err
	}

	var h Hero
	if err := json.Unmarshal(data, &h); err != nil {
		return Hero{}, &DecodeError{Path: "$", Reason: err.Error()}
	}
	return h, nil
}

func checkObject(obj gjson.Result, s *jsonschema.Schema, prefix string) error {
	if s.Properties == nil {
		return nil
	}
	if err := checkKeys(obj, s, prefix); err != nil {
		return err
	}
	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		path := joinPath(prefix, pair.Key)
		field := obj.Get(pair.Key)
		if !field.Exists() {
			if required[pair.Key] {
				return &DecodeError{Path: path, Reason: "missing required field"}
			}
			continue
		}
		if err := checkValue(field, pair.Value, path); err != nil {
			return err
		}
	}
	return nil
}

// checkKeys rejects keys that encoding/json would bind to a schema field
// other than the one validated: repeated keys and case variants.
func checkKeys(obj gjson.Result, s *jsonschema.Schema, prefix string) error {
	seen := make(map[string]bool)
	var err error
	obj.ForEach(func(key, _ gjson.Result) bool {
		k := key.String()
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if !strings.EqualFold(k, pair.Key) {
				continue
			}
			switch {
			case k != pair.Key:
				err = &DecodeError{Path: joinPath(prefix, k), Reason: fmt.Sprintf("unexpected key, expected %q", pair.Key)}
			case seen[k]:
				err = &DecodeError{Path: joinPath(prefix, k), Reason: "duplicate field"}
			}
			seen[k] = true
			break
		}
		return err == nil
	})
	return err
}

func checkValue(v gjson.Result, s *jsonschema.Schema, path string) error {
	switch s.Type {
	case "string":
		if v.Type != gjson.String {
			return mismatch(path, "string", v)
		}
	case "integer":
		if v.Type != gjson.Number {
			return mismatch(path, "integer", v)
		}
		if _, err := strconv.ParseInt(v.Raw, 10, strconv.IntSize); err != nil {
			return &DecodeError{Path: path, Reason: fmt.Sprintf("expected integer, got %s", v.Raw)}
		}
	case "array":
		if !v.IsArray() {
			return mismatch(path, "array", v)
		}
		if s.Items == nil {
			return nil
		}
		for i, el := range v.Array() {
			if err := checkValue(el, s.Items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case "object":
		if !v.IsObject() {
			return mismatch(path, "object", v)
		}
		return checkObject(v, s, path)
	}
	return nil
}

func mismatch(path, want string, got gjson.Result) error {
	return &DecodeError{Path: path, Reason: fmt.Sprintf("expected %s, got %s", want, kindOf(got))}
}

func kindOf(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	}
	if v.IsArray() {
		return "array"
	}
	return "object"
}

func joinPath(prefix, key string) string {
	if prefix == "$" || prefix == "" {
		return key
	}
	return prefix + "." + key
}
