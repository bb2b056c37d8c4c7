package jsonvalue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PreservesFieldOrder(t *testing.T) {
	v, err := DecodeBytes([]byte(`{"z":1,"a":2,"m":{"y":true,"b":null}}`))
	require.NoError(t, err)

	assert.Equal(t, KindObject, v.Kind())
	assert.Equal(t, []string{"z", "a", "m"}, v.Keys())

	m, ok := v.Get("m")
	require.True(t, ok)
	assert.Equal(t, []string{"y", "b"}, m.Keys())
}

func TestDecode_Scalars(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind Kind
		cell string
	}{
		{"integer", `42`, KindNumber, "42"},
		{"big integer keeps literal", `12345678901234567890`, KindNumber, "12345678901234567890"},
		{"float", `1.5e3`, KindNumber, "1.5e3"},
		{"string", `"hi"`, KindString, "hi"},
		{"true", `true`, KindBool, "true"},
		{"false", `false`, KindBool, "false"},
		{"null", `null`, KindNull, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeBytes([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.cell, v.CellString())
		})
	}
}

func TestDecode_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	v := MustDecode(`{"a":1,"b":2,"a":3}`)
	assert.Equal(t, []string{"a", "b"}, v.Keys())
	a, _ := v.Get("a")
	assert.Equal(t, "3", a.Text())
}

func TestDecode_ByteOrderMark(t *testing.T) {
	doc := "\xef\xbb\xbf" + `{"items":[{"a":1}]}`
	v, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"items"}, v.Keys())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"whitespace only", "  \n"},
		{"truncated object", `{"a":1`},
		{"truncated array", `[1,2`},
		{"trailing data", `{"a":1} {"b":2}`},
		{"bad literal", `{"a":tru}`},
		{"missing colon", `{"a" 1}`},
		{"missing comma", `[1 2]`},
		{"leading comma", `[,1]`},
		{"comma instead of colon", `{"a",1}`},
		{"colon in array", `[1:2]`},
		{"leading zero", `01`},
		{"trailing comma", `[1,]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(tt.doc))
			assert.Error(t, err)
		})
	}

	_, err := DecodeBytes(nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = DecodeBytes([]byte(`{"a" 1}`))
	assert.ErrorContains(t, err, "offset")
}

func TestIsArrayOfObjects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{"objects", `[{"a":1},{"b":2}]`, true},
		{"empty objects", `[{},{}]`, true},
		{"empty array", `[]`, false},
		{"scalars", `[1,2]`, false},
		{"mixed", `[{"a":1},2]`, false},
		{"nested arrays", `[[{"a":1}]]`, false},
		{"object", `{"a":1}`, false},
		{"scalar", `"x"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsArrayOfObjects(MustDecode(tt.doc)))
		})
	}

	assert.False(t, IsArrayOfObjects(nil))
}

func TestCellString_Containers(t *testing.T) {
	v := MustDecode(`{"tags":[{"t":"x"},{"t":"y"}],"meta":{"k":"v","n":1}}`)

	tags, _ := v.Get("tags")
	assert.Equal(t, `[{"t":"x"},{"t":"y"}]`, tags.CellString())

	meta, _ := v.Get("meta")
	assert.Equal(t, `{"k":"v","n":1}`, meta.CellString())

	assert.Equal(t, "", Missing().CellString())
}

func TestBuilders(t *testing.T) {
	obj := NewObject().
		Set("id", Int(7)).
		Set("name", String("seven")).
		Set("ok", Bool(true)).
		Set("none", Null()).
		Set("list", Array(Int(1), Int(2)))

	b, err := obj.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"id":7,"name":"seven","ok":true,"none":null,"list":[1,2]}`, string(b))

	i, ok := obj.Len(), obj.IsObject()
	assert.Equal(t, 5, i)
	assert.True(t, ok)

	id, _ := obj.Get("id")
	n, isInt := id.Int64()
	assert.True(t, isInt)
	assert.Equal(t, int64(7), n)

	assert.Panics(t, func() { Int(1).Set("a", Null()) })
}

func TestNilValueIsMissing(t *testing.T) {
	var v *Value
	assert.Equal(t, KindMissing, v.Kind())
	assert.True(t, v.IsMissing())
	assert.Equal(t, 0, v.Len())
	assert.Nil(t, v.Items())
	assert.Nil(t, v.Keys())
}
