package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindProvisionalDiagnosis(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "value followed by newline",
			text: "Provisional diagnosis:   Type 2 diabetes  \nNext line",
			want: "Type 2 diabetes",
		},
		{
			name: "value at end of text",
			text: "Name: J. Doe\nProvisional diagnosis: Migraine",
			want: "Migraine",
		},
		{
			name: "upper case label",
			text: "PROVISIONAL DIAGNOSIS: foo",
			want: "foo",
		},
		{
			name: "lower case label",
			text: "provisional diagnosis: foo",
			want: "foo",
		},
		{
			name: "label missing",
			text: "Findings: normal.\nDiagnosis pending.",
			want: NotFound,
		},
		{
			name: "empty text",
			text: "",
			want: NotFound,
		},
		{
			name: "label followed by newline yields empty value",
			text: "Provisional diagnosis:\nAcute gastritis",
			want: "",
		},
		{
			name: "label followed by spaces then newline",
			text: "Provisional diagnosis:   \r\nAcute gastritis",
			want: "",
		},
		{
			name: "first label wins",
			text: "Provisional diagnosis: Fever\nProvisional diagnosis: Malaria",
			want: "Fever",
		},
		{
			name: "closing paren artifact stripped",
			text: "Provisional diagnosis: Acute appendicitis RE)",
			want: "Acute appendicitis",
		},
		{
			name: "space artifact stripped",
			text: "Provisional diagnosis: RE Fracture of left radius",
			want: "Fracture of left radius",
		},
		{
			name: "case is preserved",
			text: "Provisional diagnosis: viral Fever",
			want: "viral Fever",
		},
		{
			name: "carriage return trimmed",
			text: "Provisional diagnosis: Asthma\r\nPlan: inhaler",
			want: "Asthma",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindProvisionalDiagnosis(tt.text))
		})
	}
}

func TestFindProvisionalDiagnosisEndToEnd(t *testing.T) {
	text := "Findings: normal.\nProvisional diagnosis: Acute appendicitis RE)\nEnd."

	got := FindProvisionalDiagnosis(text)

	assert.Equal(t, "Acute appendicitis", got)
	assert.Equal(t, "ACUTE APPENDICITIS", Normalize(got))
}

func TestNormalizeSentinel(t *testing.T) {
	assert.Equal(t, "NOT FOUND", Normalize(FindProvisionalDiagnosis("nothing here")))
}
