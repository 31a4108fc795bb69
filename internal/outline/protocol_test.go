package outline

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u32(v uint32) *uint32 { return &v }
func str(v string) *string { return &v }

func TestEncodeUpdateOmitsAbsentFields(t *testing.T) {
	tests := []struct {
		name string
		in   Update
		want string
	}{
		{name: "blur only", in: Update{Blur: u32(10)}, want: `{"blur":10}` + "\n"},
		{name: "color only", in: Update{Color: str("red")}, want: `{"color":"red"}` + "\n"},
		{name: "all", in: Update{Color: str("#00ff00"), Width: u32(2), Blur: u32(0)}, want: `{"color":"#00ff00","width":2,"blur":0}` + "\n"},
		{name: "empty", in: Update{}, want: "{}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeUpdate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestDecodeUpdateRejectsUnknownFields(t *testing.T) {
	_, err := DecodeUpdate([]byte(`{"colour":"red"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedUpdate))

	_, err = DecodeUpdate([]byte("   "))
	require.Error(t, err)

	u, err := DecodeUpdate([]byte(`{"width":7}`))
	require.NoError(t, err)
	require.NotNil(t, u.Width)
	assert.Equal(t, uint32(7), *u.Width)
	assert.Nil(t, u.Color)
	assert.Nil(t, u.Blur)
}

func TestDecoderSkipsBlankLines(t *testing.T) {
	dec := NewDecoder(strings.NewReader("\n{\"color\":\"red\"}\n\n{\"blur\":3}"))

	first, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "red", *first.Color)

	second, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), *second.Blur)

	_, err = dec.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestUpdateApplyPreservesUnsetFields(t *testing.T) {
	opts := StartOptions{Color: "#ff0000", Width: u32(3)}
	got := Update{Blur: u32(10)}.Apply(opts)

	assert.Equal(t, "#ff0000", got.Color)
	assert.Equal(t, uint32(3), *got.Width)
	assert.Equal(t, uint32(10), *got.Blur)

	got = Update{Color: str("red")}.Apply(got)
	assert.Equal(t, "red", got.Color)
	assert.Equal(t, uint32(3), *got.Width)
	assert.Equal(t, uint32(10), *got.Blur)
}

func TestStartOptionsArgsRoundTrip(t *testing.T) {
	opts := StartOptions{Color: "#ff0000", Width: u32(3)}
	args := opts.Args()
	assert.Equal(t, []string{"--color", "#ff0000", "--width", "3"}, args)

	parsed, err := ParseArgs(args)
	require.NoError(t, err)
	assert.Equal(t, opts, parsed)
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing color", args: []string{"--width", "3"}},
		{name: "dangling flag", args: []string{"--color"}},
		{name: "unparsable color", args: []string{"--color", "not-a-color"}},
		{name: "bad width", args: []string{"--color", "red", "--width", "-1"}},
		{name: "unknown flag", args: []string{"--color", "red", "--alpha", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestStartOptionsValidate(t *testing.T) {
	assert.Error(t, StartOptions{}.Validate())
	assert.Error(t, StartOptions{Color: "  "}.Validate())
	assert.NoError(t, StartOptions{Color: "blue"}.Validate())
}

func TestStartOptionsValidateRejectsUnparsableColor(t *testing.T) {
	err := StartOptions{Color: "not-a-color"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid color")
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{in: "#ff0000", want: 0xFF0000},
		{in: "FF4D4F", want: 0xFF4D4F},
		{in: "#0f0", want: 0x00FF00},
		{in: " Red ", want: 0xFF0000},
		{in: "#12345", wantErr: true},
		{in: "#gggggg", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseColor(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseColor(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseColor(%q)", tt.in)
	}
}
