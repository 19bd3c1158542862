package sales

import (
	"encoding/json"
	"testing"

	"github.com/erp/salescore/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRequest_NormalizeAliases(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantDate string
		wantCode string
		wantErr  bool
	}{
		{
			name:     "canonical names",
			body:     `{"documentDate":"2026-01-15","details":[{"productCode":"A","quantity":"1","unitPrice":"2"}]}`,
			wantDate: "2026-01-15",
			wantCode: "A",
		},
		{
			name:     "aliases",
			body:     `{"docDate":"2026-02-01T10:00:00Z","items":[{"productCode":"B","quantity":"1","unitPrice":"2"}]}`,
			wantDate: "2026-02-01",
			wantCode: "B",
		},
		{
			name:     "canonical wins over alias",
			body:     `{"documentDate":"2026-03-03","docDate":"2026-04-04","details":[{"productCode":"C","quantity":1}],"items":[{"productCode":"D","quantity":1}]}`,
			wantDate: "2026-03-03",
			wantCode: "C",
		},
		{
			name:    "no lines",
			body:    `{"docDate":"2026-02-01"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req DocumentRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			in, err := req.Normalize()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, in.DocumentDate.Format(dateLayout))
			require.Len(t, in.Lines, 1)
			assert.Equal(t, tt.wantCode, in.Lines[0].ProductCode)
		})
	}
}

func TestDocumentRequest_NormalizeRejectsBadRate(t *testing.T) {
	var req DocumentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"exchangeRate":"0","items":[{"productCode":"A","quantity":1}]}`), &req))
	_, err := req.Normalize()
	assert.Error(t, err)
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"15/01/2026"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20260115`), &d))

	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.Nil(t, d.Ptr())

	out, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, `"0001-01-01"`, string(out))
}

func TestToLineResponses(t *testing.T) {
	sourceLine := uuid.New()
	lines := []sales.SalesDocumentLine{{
		ID:             uuid.New(),
		LineNo:         1,
		ProductCode:    "P-100",
		Quantity:       decimal.NewFromInt(10),
		UOMRate:        decimal.NewFromInt(1),
		UnitPrice:      decimal.RequireFromString("12.50"),
		DiscountAmount: decimal.NewFromInt(5),
		SubTotal:       decimal.NewFromInt(125),
		TaxAmount:      decimal.RequireFromString("7.20"),
		OutstandingQty: decimal.NewFromInt(4),
		TransferredQty: decimal.NewFromInt(6),
		SourceLineID:   &sourceLine,
	}}

	out := ToLineResponses(lines)
	require.Len(t, out, 1)
	assert.Equal(t, lines[0].ID, out[0].ID)
	assert.Equal(t, "P-100", out[0].ProductCode)
	assert.True(t, out[0].SubTotal.Equal(decimal.NewFromInt(125)))
	assert.True(t, out[0].TaxAmount.Equal(decimal.RequireFromString("7.2")))
	assert.True(t, out[0].OutstandingQty.Equal(decimal.NewFromInt(4)))
	assert.True(t, out[0].TransferredQty.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, &sourceLine, out[0].SourceLineID)

	assert.Empty(t, ToLineResponses(nil))
}
