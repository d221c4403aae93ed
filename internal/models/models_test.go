package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePredictRequest_Valid(t *testing.T) {
	body := `{"tiempo_contrato_meses": 12, "retrasos_pago": 0, "uso_mensual": 20.5, "plan": "Premium", "extra": true}`

	req, err := ParsePredictRequest([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, PredictRequest{ContractMonths: 12, PaymentDelays: 0, MonthlyUsage: 20.5, Plan: "Premium"}, req)
}

func TestParsePredictRequest_IntegralFloatAccepted(t *testing.T) {
	req, err := ParsePredictRequest([]byte(`{"tiempo_contrato_meses": 12.0, "retrasos_pago": 1e1, "uso_mensual": 0, "plan": "Basic"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(12), req.ContractMonths)
	assert.Equal(t, int64(10), req.PaymentDelays)
}

func TestParsePredictRequest_Violations(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{
			name:   "missing everything",
			body:   `{}`,
			fields: []string{FieldContractMonths, FieldPaymentDelays, FieldMonthlyUsage, FieldPlan},
		},
		{
			name:   "explicit nulls",
			body:   `{"tiempo_contrato_meses": null, "retrasos_pago": 1, "uso_mensual": null, "plan": "Basic"}`,
			fields: []string{FieldContractMonths, FieldMonthlyUsage},
		},
		{
			name:   "negative contract months",
			body:   `{"tiempo_contrato_meses": -1, "retrasos_pago": 1, "uso_mensual": 3, "plan": "Basic"}`,
			fields: []string{FieldContractMonths},
		},
		{
			name:   "negative usage",
			body:   `{"tiempo_contrato_meses": 1, "retrasos_pago": 1, "uso_mensual": -0.1, "plan": "Basic"}`,
			fields: []string{FieldMonthlyUsage},
		},
		{
			name:   "fractional delays",
			body:   `{"tiempo_contrato_meses": 1, "retrasos_pago": 1.5, "uso_mensual": 3, "plan": "Basic"}`,
			fields: []string{FieldPaymentDelays},
		},
		{
			name:   "string number",
			body:   `{"tiempo_contrato_meses": "5", "retrasos_pago": 1, "uso_mensual": "3", "plan": "Basic"}`,
			fields: []string{FieldContractMonths, FieldMonthlyUsage},
		},
		{
			name:   "blank plan",
			body:   `{"tiempo_contrato_meses": 1, "retrasos_pago": 1, "uso_mensual": 3, "plan": "   "}`,
			fields: []string{FieldPlan},
		},
		{
			name:   "plan not a string",
			body:   `{"tiempo_contrato_meses": 1, "retrasos_pago": 1, "uso_mensual": 3, "plan": 7}`,
			fields: []string{FieldPlan},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePredictRequest([]byte(tt.body))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)

			got := make([]string, 0, len(verr.Violations))
			for _, v := range verr.Violations {
				got = append(got, v.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestParsePredictRequest_Malformed(t *testing.T) {
	for _, body := range []string{``, `not json`, `[1,2,3]`, `{"plan": `} {
		_, err := ParsePredictRequest([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedBody, "body %q", body)
	}
}

func TestPredictRequest_Validate(t *testing.T) {
	assert.NoError(t, PredictRequest{Plan: "Basic"}.Validate())

	err := PredictRequest{ContractMonths: -3, Plan: ""}.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 2)
	assert.Contains(t, err.Error(), FieldPlan)
}
