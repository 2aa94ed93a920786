// Package credential models the issued verifiable credential as fetched from
// the issuance API, and retrieves it per (type, wallet) pair.
package credential

import (
	"bytes"
	"encoding/json"
	"fmt"

	dErrors "certverify/pkg/domain-errors"
)

// Type identifies a supported credential kind. Values are case-sensitive and
// match the upstream API's type discriminator.
type Type string

const (
	TypeMSPO     Type = "MSPO"
	TypeLandDeed Type = "LAND_DEED"
)

// ParseType validates a raw credential type string.
func ParseType(raw string) (Type, error) {
	switch Type(raw) {
	case TypeMSPO, TypeLandDeed:
		return Type(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unsupported credential type %q", raw))
	}
}

// KindCode returns the integer credential kind used by the on-chain registry's
// getCredentials call. The anchoring contract stores both kinds under code 1.
func (t Type) KindCode() int64 {
	return 1
}

// HasShapefile reports whether this credential kind references an external
// geospatial shapefile whose integrity is checked separately.
func (t Type) HasShapefile() bool {
	return t == TypeLandDeed
}

// Proof is the credential's embedded proof object. Only the signed JWT
// assertion is read by this service.
type Proof struct {
	Type string `json:"type,omitempty"`
	JWT  string `json:"jwt,omitempty"`
}

// Subject is the open map of credential subject claims. Typed accessors cover
// the fields this service reads; everything else is carried opaquely.
type Subject map[string]any

// ShapefileURL returns the shapefile download URL claimed by a land-deed subject.
func (s Subject) ShapefileURL() string {
	v, _ := s["ShapeFile"].(string)
	return v
}

// ShapefileHash returns the expected shapefile SHA-256 hex digest claimed by a
// land-deed subject.
func (s Subject) ShapefileHash() string {
	v, _ := s["shapefileHash"].(string)
	return v
}

// Credential is an issued verifiable credential. It is immutable once fetched:
// the verifier only reads it and re-serializes it for hashing. The exact raw
// JSON as returned by the issuance API is retained because on-chain anchoring
// hashed that serialization; re-marshalling through Go maps would reorder keys
// and break hash equality.
type Credential struct {
	raw []byte

	Issuer  string
	Types   []string
	Proof   Proof
	Subject Subject
}

// credentialDoc is the decoded view of the fields this service reads.
type credentialDoc struct {
	Issuer            json.RawMessage `json:"issuer"`
	Type              typeList        `json:"type"`
	Proof             Proof           `json:"proof"`
	CredentialSubject Subject         `json:"credentialSubject"`
}

// typeList accepts both a single string and an array of strings.
type typeList []string

func (t *typeList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*t = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*t = many
	return nil
}

// Parse decodes a raw credential document. The raw bytes are retained verbatim
// for canonical hashing.
func Parse(raw []byte) (*Credential, error) {
	var doc credentialDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed credential document")
	}

	cred := &Credential{
		raw:     append([]byte(nil), raw...),
		Types:   doc.Type,
		Proof:   doc.Proof,
		Subject: doc.CredentialSubject,
	}
	cred.Issuer = parseIssuer(doc.Issuer)

	return cred, nil
}

// parseIssuer handles both issuer forms of the VC data model: a plain DID
// string or an object with an "id" field.
func parseIssuer(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}

// CanonicalJSON returns the credential serialized exactly as fetched, with
// insignificant whitespace removed. This is the byte stream hashed at
// anchoring time, so key order is preserved.
func (c *Credential) CanonicalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, c.raw); err != nil {
		return nil, fmt.Errorf("compact credential json: %w", err)
	}
	return buf.Bytes(), nil
}

// Content returns the credential decoded to a generic map, for structural
// comparison against the payload recovered from the JWT proof.
func (c *Credential) Content() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(c.raw, &m); err != nil {
		return nil, fmt.Errorf("decode credential content: %w", err)
	}
	return m, nil
}
