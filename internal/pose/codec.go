package pose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
)

var null = []byte("null")

var personKeys = []string{KeyBody, KeyFace, KeyLeftHand, KeyRightHand}

func (p *Person) fields() []*Keypoints {
	return []*Keypoints{&p.Body, &p.Face, &p.LeftHand, &p.RightHand}
}

func (p *Person) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Person{}
	fields := p.fields()
	for key, value := range raw {
		if i := slices.Index(personKeys, key); i >= 0 && !bytes.Equal(bytes.TrimSpace(value), null) {
			if err := json.Unmarshal(value, fields[i]); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string][]byte)
		}
		p.Extra[key] = slices.Clone(value)
	}
	return nil
}

func (p Person) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	written := make(map[string]bool, len(personKeys))
	for i, field := range p.fields() {
		if *field == nil {
			continue
		}
		if err := writeMember(&buf, &first, personKeys[i], *field); err != nil {
			return nil, err
		}
		written[personKeys[i]] = true
	}
	if err := writeExtra(&buf, &first, p.Extra, written); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = Frame{}
	for key, value := range raw {
		if key == KeyPeople && !bytes.Equal(bytes.TrimSpace(value), null) {
			if err := json.Unmarshal(value, &f.People); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			continue
		}
		if f.Extra == nil {
			f.Extra = make(map[string][]byte)
		}
		f.Extra[key] = slices.Clone(value)
	}
	return nil
}

func (f Frame) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	written := map[string]bool{}
	if f.People != nil {
		people, err := marshalPeople(f.People)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", KeyPeople, err)
		}
		if err := writeRaw(&buf, &first, KeyPeople, people); err != nil {
			return nil, err
		}
		written[KeyPeople] = true
	}
	if err := writeExtra(&buf, &first, f.Extra, written); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalPeople joins the people by hand. Going through encoding/json would
// compact the preserved members each person carries.
func marshalPeople(people []Person) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, p := range people {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := p.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func encodeValue(v any) ([]byte, error) {
	var value bytes.Buffer
	enc := json.NewEncoder(&value)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(value.Bytes(), "\n"), nil
}

func writeMember(buf *bytes.Buffer, first *bool, key string, v any) error {
	value, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return writeRaw(buf, first, key, value)
}

// writeRaw writes value exactly as given.
func writeRaw(buf *bytes.Buffer, first *bool, key string, value []byte) error {
	if !*first {
		buf.WriteByte(',')
	}
	*first = false
	k, err := encodeValue(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(value)
	return nil
}

// writeExtra writes preserved members in sorted key order, skipping keys the
// typed fields already wrote.
func writeExtra(buf *bytes.Buffer, first *bool, extra map[string][]byte, written map[string]bool) error {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		if !written[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := writeRaw(buf, first, k, extra[k]); err != nil {
			return err
		}
	}
	return nil
}

// ErrEmptyInput is returned when a pose document has no content.
var ErrEmptyInput = errors.New("empty pose document")

// DecodeSequence reads either a JSON array of frames or a single frame
// object, which is treated as a one-frame sequence.
func DecodeSequence(r io.Reader) (Sequence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pose document: %w", err)
	}
	return ParseSequence(data)
}

// ParseSequence is DecodeSequence over an in-memory document.
func ParseSequence(data []byte) (Sequence, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	switch data[0] {
	case '[':
		var seq Sequence
		if err := json.Unmarshal(data, &seq); err != nil {
			return nil, fmt.Errorf("decode pose sequence: %w", err)
		}
		if seq == nil {
			seq = Sequence{}
		}
		return seq, nil
	case '{':
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode pose frame: %w", err)
		}
		return Sequence{f}, nil
	default:
		return nil, fmt.Errorf("decode pose document: expected array or object")
	}
}

// EncodeSequence writes seq as a JSON array of frames followed by a newline.
// Preserved members are written byte for byte as they were read, whitespace
// included.
func EncodeSequence(w io.Writer, seq Sequence) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, f := range seq {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := f.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode pose sequence: frame %d: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteString("]\n")
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("encode pose sequence: %w", err)
	}
	return nil
}
