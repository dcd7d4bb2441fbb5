package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"pix-checkout/internal/domain"
)

// Violation describes one field that failed validation.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error is returned when the checkout payload is invalid. It lists every
// offending field.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fmt.Sprintf("invalid customer data: %s", strings.Join(fields, ", "))
}

// customerFields is the declaration order of domain.CustomerInput.
var customerFields = []string{"name", "email", "phone", "taxId"}

var messages = map[string]string{
	"name.min":     "Nome deve ter pelo menos 2 caracteres",
	"email.email":  "Email inválido",
	"phone.min":    "Telefone deve ter pelo menos 10 dígitos",
	"taxId.min":    "CPF deve ter pelo menos 11 dígitos",
	"body.object":  "O corpo da requisição deve ser um objeto JSON",
	"*.required":   "Campo obrigatório",
	"*.string":     "Deve ser um texto",
	"*.validation": "Valor inválido",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Customer checks an arbitrary decoded JSON value against the customer rules
// and returns the typed input when it passes.
func Customer(input any) (domain.CustomerInput, error) {
	var in domain.CustomerInput

	obj, ok := input.(map[string]any)
	if !ok {
		return in, &Error{Violations: []Violation{violation("body", "object")}}
	}

	var violations []Violation
	flagged := make(map[string]bool)
	values := make(map[string]string, len(customerFields))
	for _, field := range customerFields {
		raw, present := obj[field]
		if !present || raw == nil {
			violations = append(violations, violation(field, "required"))
			flagged[field] = true
			continue
		}
		s, isString := raw.(string)
		if !isString {
			violations = append(violations, violation(field, "string"))
			flagged[field] = true
			continue
		}
		values[field] = s
	}

	in = domain.CustomerInput{
		Name:  values["name"],
		Email: values["email"],
		Phone: values["phone"],
		TaxID: values["taxId"],
	}

	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return in, fmt.Errorf("validate customer: %w", err)
		}
		for _, fe := range fieldErrs {
			if flagged[fe.Field()] {
				continue
			}
			violations = append(violations, violation(fe.Field(), fe.Tag()))
		}
	}

	if len(violations) > 0 {
		sortByField(violations)
		return in, &Error{Violations: violations}
	}
	return in, nil
}

func violation(field, rule string) Violation {
	msg, ok := messages[field+"."+rule]
	if !ok {
		msg, ok = messages["*."+rule]
	}
	if !ok {
		msg = messages["*.validation"]
	}
	return Violation{Field: field, Rule: rule, Message: msg}
}

func sortByField(vs []Violation) {
	rank := make(map[string]int, len(customerFields))
	for i, f := range customerFields {
		rank[f] = i
	}
	sort.SliceStable(vs, func(i, j int) bool {
		return rank[vs[i].Field] < rank[vs[j].Field]
	})
}
