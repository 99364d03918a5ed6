package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DateTimeLayout is the value format of <input type="datetime-local">
const DateTimeLayout = "2006-01-02T15:04"

var phonePattern = regexp.MustCompile(`^[0-9]{5,20}$`)

// ValidationError is one field level failure
type ValidationError struct {
	Field   string      `json:"field"`
	Label   string      `json:"label"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Summary renders each error as "<label>: <message>"
func (ve ValidationErrors) Summary() []string {
	out := make([]string, 0, len(ve))
	for _, e := range ve {
		label := e.Label
		if label == "" {
			label = e.Field
		}
		out = append(out, label+": "+e.Message)
	}
	return out
}

// ByField groups messages for inline rendering next to each input
func (ve ValidationErrors) ByField() map[string][]string {
	out := make(map[string][]string, len(ve))
	for _, e := range ve {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// Validator wraps go-playground/validator with the form rules and labels used by the site
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report form field names so errors line up with inputs
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("trimmed_required", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{validate: v}
}

// Struct validates s and returns nil when it is valid
func (v *Validator) Struct(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err, s)
	}
	return nil
}

// ToValidationErrors converts validator errors, reading labels from the struct tags of s
func ToValidationErrors(err error, s interface{}) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: "form", Message: err.Error(), Rule: "invalid"}}
	}

	labels := labelsOf(s)
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Label:   labels[fe.StructField()],
			Message: messageFor(fe, labels),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func labelsOf(s interface{}) map[string]string {
	t := reflect.TypeOf(s)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	labels := map[string]string{}
	if t == nil || t.Kind() != reflect.Struct {
		return labels
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if l := f.Tag.Get("label"); l != "" {
			labels[f.Name] = l
		}
	}
	return labels
}

func messageFor(fe validator.FieldError, labels map[string]string) string {
	switch fe.Tag() {
	case "required", "trimmed_required":
		return "此项为必填项"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("长度不能超过%s个字符", fe.Param())
		}
		return fmt.Sprintf("不能大于%s", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("长度不能少于%s个字符", fe.Param())
		}
		return fmt.Sprintf("不能小于%s", fe.Param())
	case "phone":
		return "请输入5到20位数字的手机号"
	case "eqfield":
		other := labels[fe.Param()]
		if other == "" {
			other = fe.Param()
		}
		return fmt.Sprintf("必须与%s一致", other)
	case "oneof":
		return "请选择有效的选项"
	case "datetime":
		return "时间格式不正确"
	case "gt", "gte":
		return fmt.Sprintf("不能小于%s", fe.Param())
	case "lte":
		return fmt.Sprintf("不能大于%s", fe.Param())
	default:
		return fmt.Sprintf("校验失败 (%s)", fe.Tag())
	}
}
