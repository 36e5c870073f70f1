package fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Value
		want Value
	}{
		{"add known", Known(2).Add(Known(3)), Known(5)},
		{"add unknown left", Unknown.Add(Known(3)), Unknown},
		{"add unknown right", Known(2).Add(Unknown), Unknown},
		{"sub", Known(10).Sub(Known(4)), Known(6)},
		{"mul", Known(3).Mul(Known(4)), Known(12)},
		{"div", Known(10).Div(Known(4)), Known(2.5)},
		{"div by zero", Known(10).Div(Known(0)), Unknown},
		{"div by unknown", Known(10).Div(Unknown), Unknown},
		{"abs negative", Known(-7).Abs(), Known(7)},
		{"abs positive", Known(7).Abs(), Known(7)},
		{"or known keeps value", Known(5).Or(0), Known(5)},
		{"or unknown substitutes", Unknown.Or(0), Known(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestValue_Ptr(t *testing.T) {
	p := Known(1.5).Ptr()
	assert.NotNil(t, p)
	assert.Equal(t, 1.5, *p)
	assert.Nil(t, Unknown.Ptr())

	assert.Equal(t, Known(2.5), FromPtr(Known(2.5).Ptr()))
	assert.Equal(t, Unknown, FromPtr(nil))
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "", Unknown.String())
	assert.Equal(t, "1.5", Known(1.5).String())
	assert.Equal(t, "-40", Known(-40).String())
}
