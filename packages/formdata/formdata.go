// Package formdata builds multipart/form-data request bodies.
//
// Values are described with a closed set of variants:
//   - Scalar: any printable value, sent as a text field
//   - Date: a point in time, sent in ISO 8601 with milliseconds (UTC)
//   - File: named binary content, sent as a file part (skipped when empty)
//   - Object: nested fields, sent as key[sub]
//   - List: indexed fields, sent as key[0], key[1], ...
package formdata

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"time"
)

// Value is one of Scalar, Date, File, Object or List.
type Value interface {
	isValue()
}

// Scalar is a text field. A nil Scalar value is skipped.
type Scalar struct {
	Value any
}

// Date is a text field holding a timestamp.
type Date time.Time

// File is a binary part.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Object expands into key[name] fields.
type Object map[string]Value

// List expands into key[index] fields.
type List []Value

func (Scalar) isValue() {}
func (Date) isValue()   {}
func (*File) isValue()  {}
func (Object) isValue() {}
func (List) isValue()   {}

// Text is shorthand for Scalar{Value: s}.
func Text(s string) Scalar {
	return Scalar{Value: s}
}

// dateLayout matches the millisecond ISO 8601 form used by browsers.
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

// Part is one flattened form entry. Exactly one of Value or File is set.
type Part struct {
	Name  string
	Value string
	File  *File
}

// IsFile reports whether the part is a file part.
func (p Part) IsFile() bool {
	return p.File != nil
}

// Form is an ordered list of parts. *Form is a request body: Open encodes
// it with a fresh boundary every time.
type Form struct {
	parts []Part
}

// New returns an empty form.
func New() *Form {
	return &Form{}
}

// Build flattens fields into a form. Top-level keys are emitted in sorted order.
func Build(fields map[string]Value) (*Form, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := New()
	for _, k := range keys {
		if err := f.Set(k, fields[k]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Set appends value under key, expanding lists and objects.
func (f *Form) Set(key string, value Value) error {
	switch v := value.(type) {
	case nil:
		return nil
	case Scalar:
		if v.Value == nil {
			return nil
		}
		f.Add(key, fmt.Sprint(v.Value))
	case Date:
		f.Add(key, time.Time(v).UTC().Format(dateLayout))
	case *File:
		if v == nil {
			return nil
		}
		f.AddFile(key, v)
	case List:
		for i, item := range v {
			if err := f.Set(fmt.Sprintf("%s[%d]", key, i), item); err != nil {
				return err
			}
		}
	case Object:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := f.Set(fmt.Sprintf("%s[%s]", key, name), v[name]); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("formdata: unsupported value %T for %q", value, key)
	}
	return nil
}

// Add appends a text field.
func (f *Form) Add(name, value string) *Form {
	f.parts = append(f.parts, Part{Name: name, Value: value})
	return f
}

// AddFile appends a file part. Files without content are skipped.
func (f *Form) AddFile(name string, file *File) *Form {
	if file == nil || len(file.Data) == 0 {
		return f
	}
	f.parts = append(f.parts, Part{Name: name, File: file})
	return f
}

// Parts returns the flattened entries in order.
func (f *Form) Parts() []Part {
	return append([]Part(nil), f.parts...)
}

// Open encodes the form and returns it with its multipart content type.
func (f *Form) Open() (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, part := range f.parts {
		if !part.IsFile() {
			if err := writer.WriteField(part.Name, part.Value); err != nil {
				return nil, "", err
			}
			continue
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", multipart.FileContentDisposition(part.Name, part.File.Name))
		contentType := part.File.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		w, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(part.File.Data); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}
