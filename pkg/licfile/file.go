package licfile

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lockboxlabs/licenser/pkg/cryptox"
)

const fileHeader = "LICENSER LICENSE FILE V1"

// ErrMalformedFile reports a license file that does not parse.
var ErrMalformedFile = errors.New("licfile: malformed license file")

// File is a parsed license export artifact.
type File struct {
	LicenseID string
	Fields    Fields
	Signature []byte
}

// Marshal renders the file as deterministic text. Features are written in
// normalized (sorted, deduplicated) order so marshaling is byte-stable.
func (f *File) Marshal() ([]byte, error) {
	if f.LicenseID == "" {
		return nil, fmt.Errorf("licfile: license id is required")
	}
	values := []string{f.LicenseID, f.Fields.AppID, f.Fields.CustomerName, f.Fields.SigningKeyID}
	values = append(values, f.Fields.Features...)
	for _, v := range values {
		// The format is line-oriented; a value with a line break would
		// produce a file Unmarshal cannot parse back.
		if strings.ContainsAny(v, "\r\n") {
			return nil, fmt.Errorf("licfile: field value %q contains a line break", v)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader + "\n")
	writeField(&buf, "License-Id", f.LicenseID)
	writeField(&buf, "App-Id", f.Fields.AppID)
	writeField(&buf, "Customer", f.Fields.CustomerName)
	writeField(&buf, "Valid-From", f.Fields.ValidFrom.UTC().Format(dateLayout))
	writeField(&buf, "Valid-To", f.Fields.ValidTo.UTC().Format(dateLayout))
	writeField(&buf, "Features", strings.Join(NormalizeFeatures(f.Fields.Features), ","))
	writeField(&buf, "Signing-Key-Id", f.Fields.SigningKeyID)
	writeField(&buf, "Signature", base64.StdEncoding.EncodeToString(f.Signature))
	return buf.Bytes(), nil
}

// Unmarshal parses a license file produced by Marshal.
func Unmarshal(data []byte) (*File, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	if !scanner.Scan() || scanner.Text() != fileHeader {
		return nil, ErrMalformedFile
	}

	values := map[string]string{}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, found := strings.Cut(line, ": ")
		if !found {
			return nil, ErrMalformedFile
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("licfile: %w", err)
	}

	for _, required := range []string{"License-Id", "App-Id", "Customer", "Valid-From", "Valid-To", "Signing-Key-Id", "Signature"} {
		if _, ok := values[required]; !ok {
			return nil, ErrMalformedFile
		}
	}

	validFrom, err := time.Parse(dateLayout, values["Valid-From"])
	if err != nil {
		return nil, ErrMalformedFile
	}
	validTo, err := time.Parse(dateLayout, values["Valid-To"])
	if err != nil {
		return nil, ErrMalformedFile
	}
	signature, err := base64.StdEncoding.DecodeString(values["Signature"])
	if err != nil {
		return nil, ErrMalformedFile
	}

	var features []string
	if values["Features"] != "" {
		features = strings.Split(values["Features"], ",")
	}

	return &File{
		LicenseID: values["License-Id"],
		Fields: Fields{
			AppID:        values["App-Id"],
			CustomerName: values["Customer"],
			ValidFrom:    validFrom,
			ValidTo:      validTo,
			Features:     features,
			SigningKeyID: values["Signing-Key-Id"],
		},
		Signature: signature,
	}, nil
}

// Verify parses a license file and checks its signature against the
// signer's PEM-encoded public key. This is the offline entry point for
// licensed applications; no network or store access is involved.
func Verify(data []byte, publicKeyPEM []byte) (*File, error) {
	file, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}

	payload, err := EncodePayload(file.Fields)
	if err != nil {
		return nil, err
	}

	if err := cryptox.Verify(publicKeyPEM, payload, file.Signature); err != nil {
		return nil, err
	}

	return file, nil
}

// Filename derives the deterministic export filename from the customer name
// and the validity end date, e.g. "license_acme-corp_20251231.lic".
func Filename(customerName string, validTo time.Time) string {
	slug := strings.ToLower(customerName)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return fmt.Sprintf("license_%s_%s.lic", slug, validTo.UTC().Format("20060102"))
}

func writeField(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\n")
}
