package outline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Update is a partial outline configuration. Nil fields are left unchanged by
// the helper.
type Update struct {
	Color *string `json:"color,omitempty"`
	Width *uint32 `json:"width,omitempty"`
	Blur  *uint32 `json:"blur,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u Update) Empty() bool {
	return u.Color == nil && u.Width == nil && u.Blur == nil
}

// Apply overlays the present fields of u onto opts.
func (u Update) Apply(opts StartOptions) StartOptions {
	if u.Color != nil {
		opts.Color = *u.Color
	}
	if u.Width != nil {
		w := *u.Width
		opts.Width = &w
	}
	if u.Blur != nil {
		b := *u.Blur
		opts.Blur = &b
	}
	return opts
}

// StartOptions are the helper's startup arguments.
type StartOptions struct {
	Color string
	Width *uint32
	Blur  *uint32
}

// Validate checks that the required color is present and parses.
func (o StartOptions) Validate() error {
	if strings.TrimSpace(o.Color) == "" {
		return fmt.Errorf("color is required")
	}
	_, err := ParseColor(o.Color)
	return err
}

// Args renders the helper command line for these options.
func (o StartOptions) Args() []string {
	args := []string{"--color", o.Color}
	if o.Width != nil {
		args = append(args, "--width", strconv.FormatUint(uint64(*o.Width), 10))
	}
	if o.Blur != nil {
		args = append(args, "--blur", strconv.FormatUint(uint64(*o.Blur), 10))
	}
	return args
}

// ParseArgs is the inverse of StartOptions.Args. Unknown flags are rejected.
func ParseArgs(args []string) (StartOptions, error) {
	var opts StartOptions
	for i := 0; i < len(args); i++ {
		flag := args[i]
		if i+1 >= len(args) {
			return StartOptions{}, fmt.Errorf("flag %s requires a value", flag)
		}
		value := args[i+1]
		i++

		switch flag {
		case "--color":
			opts.Color = value
		case "--width", "--blur":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return StartOptions{}, fmt.Errorf("invalid %s %q: %w", flag, value, err)
			}
			v := uint32(n)
			if flag == "--width" {
				opts.Width = &v
			} else {
				opts.Blur = &v
			}
		default:
			return StartOptions{}, fmt.Errorf("unknown flag %s", flag)
		}
	}
	if err := opts.Validate(); err != nil {
		return StartOptions{}, err
	}
	return opts, nil
}

// EncodeUpdate renders u as a single newline-terminated JSON line.
func EncodeUpdate(u Update) ([]byte, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outline update: %w", err)
	}
	return append(data, '\n'), nil
}

// ErrMalformedUpdate is returned for update lines that are not a valid update.
var ErrMalformedUpdate = errors.New("malformed outline update")

// DecodeUpdate parses one update line. Unknown fields are rejected so that a
// protocol mismatch surfaces instead of being silently dropped.
func DecodeUpdate(line []byte) (Update, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Update{}, fmt.Errorf("%w: empty line", ErrMalformedUpdate)
	}
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	var u Update
	if err := dec.Decode(&u); err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
	}
	return u, nil
}

// Decoder reads update lines from a stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next update. Blank lines are skipped. io.EOF is returned
// once the stream is closed.
func (d *Decoder) Next() (Update, error) {
	for {
		line, err := d.r.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			u, perr := DecodeUpdate(line)
			if perr != nil {
				return Update{}, perr
			}
			return u, nil
		}
		if err != nil {
			return Update{}, err
		}
	}
}
