// Package validate checks request payloads against `validate` struct tags.
//
// Supported rules, comma-separated:
//
//	required            must not be zero/empty
//	nullable            when empty, skip the remaining rules
//	email               must look like an email address
//	min=N max=N         char length for strings, value for numbers
//	gt=N gte=N          numeric lower bounds
//	between=lo,hi       inclusive range (length for strings)
//	in=a,b,c            one of the listed values
//
//	type Input struct {
//	    Title   string `json:"title"   validate:"required,min=2,max=256"`
//	    Price   int    `json:"price"   validate:"required,gt=0"`
//	    Carrier string `json:"carrier" validate:"required,in=cdek,yandex,post"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Struct validates every tagged exported field of v and returns a map of
// json field name to first failing message. An empty map means v is valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := fieldName(rt.Field(i))
		value := rv.Field(i)
		rules := splitRules(tag)

		if contains(rules, "nullable") && isEmpty(value) {
			continue
		}
		for _, rule := range rules {
			if rule == "nullable" {
				continue
			}
			if msg := check(rule, name, value); msg != "" {
				errs[name] = msg
				break
			}
		}
	}
	return errs
}

// HasErrors reports whether Struct found anything.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func check(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")
	raw := fmt.Sprintf("%v", v.Interface())

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}

	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}

	case "min":
		if size(v, raw) < num(param) {
			if isNumeric(v) {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}

	case "max":
		if size(v, raw) > num(param) {
			if isNumeric(v) {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}

	case "gt":
		if size(v, raw) <= num(param) {
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		}

	case "gte":
		if size(v, raw) < num(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}

	case "between":
		lo, hi, ok := strings.Cut(param, ",")
		if !ok {
			return ""
		}
		if s := size(v, raw); s < num(lo) || s > num(hi) {
			if isNumeric(v) {
				return fmt.Sprintf("The %s must be between %s and %s.", field, lo, hi)
			}
			return fmt.Sprintf("The %s must be between %s and %s characters.", field, lo, hi)
		}

	case "in":
		for _, a := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	}
	return ""
}

// size is the value a bound compares against: the number itself for numeric
// kinds, the rune length for everything else.
func size(v reflect.Value, raw string) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return float64(len([]rune(raw)))
}

func isNumeric(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func num(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func fieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

// splitRules splits the tag on commas, then folds back tokens that continue
// a multi-value parameter. "in=cdek,yandex,post,max=16" becomes
// ["in=cdek,yandex,post", "max=16"] because "yandex" and "post" are not rule
// keywords while "max=16" is.
func splitRules(tag string) []string {
	tokens := strings.Split(tag, ",")
	rules := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		if len(rules) > 0 && !isRuleToken(tok) {
			rules[len(rules)-1] += "," + tok
			continue
		}
		rules = append(rules, tok)
	}
	return rules
}

var ruleKeywords = []string{
	"required", "nullable", "email",
	"min=", "max=", "gt=", "gte=", "between=", "in=",
}

func isRuleToken(s string) bool {
	for _, k := range ruleKeywords {
		if s == strings.TrimSuffix(k, "=") || strings.HasPrefix(s, k) {
			return true
		}
	}
	return false
}

func contains(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
