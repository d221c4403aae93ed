package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Wire names of the prediction features, shared with the prediction service.
const (
	FieldContractMonths = "tiempo_contrato_meses"
	FieldPaymentDelays  = "retrasos_pago"
	FieldMonthlyUsage   = "uso_mensual"
	FieldPlan           = "plan"
)

// PredictRequest is a validated set of churn features.
type PredictRequest struct {
	ContractMonths int64   `json:"tiempo_contrato_meses"`
	PaymentDelays  int64   `json:"retrasos_pago"`
	MonthlyUsage   float64 `json:"uso_mensual"`
	Plan           string  `json:"plan"`
}

// FieldViolation describes one field that failed validation.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a payload cannot be turned into a PredictRequest.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrMalformedBody means the payload is not a JSON object at all.
var ErrMalformedBody = errors.New("request body must be a JSON object")

// ParsePredictRequest decodes and validates raw JSON. It returns ErrMalformedBody
// when the input is not a JSON object and *ValidationError when any field fails.
// Unknown fields are ignored.
func ParsePredictRequest(data []byte) (PredictRequest, error) {
	var raw map[string]json.RawMessage
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return PredictRequest{}, ErrMalformedBody
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return PredictRequest{}, ErrMalformedBody
	}

	var (
		req PredictRequest
		v   []FieldViolation
		msg string
	)
	if req.ContractMonths, msg = nonNegativeInt(raw[FieldContractMonths]); msg != "" {
		v = append(v, FieldViolation{Field: FieldContractMonths, Message: msg})
	}
	if req.PaymentDelays, msg = nonNegativeInt(raw[FieldPaymentDelays]); msg != "" {
		v = append(v, FieldViolation{Field: FieldPaymentDelays, Message: msg})
	}
	if req.MonthlyUsage, msg = nonNegativeNumber(raw[FieldMonthlyUsage]); msg != "" {
		v = append(v, FieldViolation{Field: FieldMonthlyUsage, Message: msg})
	}
	if req.Plan, msg = nonBlankString(raw[FieldPlan]); msg != "" {
		v = append(v, FieldViolation{Field: FieldPlan, Message: msg})
	}

	if len(v) > 0 {
		return PredictRequest{}, &ValidationError{Violations: v}
	}
	return req, nil
}

// Validate checks an already-built request against the same rules.
func (r PredictRequest) Validate() error {
	var v []FieldViolation
	if r.ContractMonths < 0 {
		v = append(v, FieldViolation{Field: FieldContractMonths, Message: msgNegative})
	}
	if r.PaymentDelays < 0 {
		v = append(v, FieldViolation{Field: FieldPaymentDelays, Message: msgNegative})
	}
	if r.MonthlyUsage < 0 || math.IsNaN(r.MonthlyUsage) || math.IsInf(r.MonthlyUsage, 0) {
		v = append(v, FieldViolation{Field: FieldMonthlyUsage, Message: msgNegative})
	}
	if strings.TrimSpace(r.Plan) == "" {
		v = append(v, FieldViolation{Field: FieldPlan, Message: msgBlank})
	}
	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

const (
	msgRequired   = "must not be null"
	msgNegative   = "must be greater than or equal to 0"
	msgInteger    = "must be an integer"
	msgNumber     = "must be a number"
	msgString     = "must be a string"
	msgBlank      = "must not be blank"
	msgOutOfRange = "is out of range"
)

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func isNumberLiteral(raw json.RawMessage) bool {
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

func nonNegativeInt(raw json.RawMessage) (int64, string) {
	if isNull(raw) {
		return 0, msgRequired
	}
	if !isNumberLiteral(raw) {
		return 0, msgInteger
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		// 12.0 and 1e2 are integral values written as floats.
		f, ferr := strconv.ParseFloat(string(raw), 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, msgInteger
		}
		if f > math.MaxInt64 || f < math.MinInt64 {
			return 0, msgOutOfRange
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, msgNegative
	}
	return n, ""
}

func nonNegativeNumber(raw json.RawMessage) (float64, string) {
	if isNull(raw) {
		return 0, msgRequired
	}
	if !isNumberLiteral(raw) {
		return 0, msgNumber
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, msgOutOfRange
	}
	if f < 0 {
		return 0, msgNegative
	}
	return f, ""
}

func nonBlankString(raw json.RawMessage) (string, string) {
	if isNull(raw) {
		return "", msgRequired
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", msgString
	}
	if strings.TrimSpace(s) == "" {
		return "", msgBlank
	}
	return s, ""
}
