package domain

import (
	"fmt"
	"strings"
)

// TypeTag is the structural identifier of an on-chain resource type. The
// kind split matters: only struct tags without their own type parameters
// carry coin metadata that can be looked up on chain.
type TypeTag interface {
	String() string
	isTypeTag()
}

// StructTag identifies a named type declared in a module, possibly
// parameterized by further type tags.
type StructTag struct {
	Address    string
	Module     string
	Name       string
	TypeParams []TypeTag
}

func (t StructTag) isTypeTag() {}

func (t StructTag) String() string {
	var b strings.Builder
	b.WriteString(t.Address)
	b.WriteString("::")
	b.WriteString(t.Module)
	b.WriteString("::")
	b.WriteString(t.Name)
	if len(t.TypeParams) > 0 {
		b.WriteString("<")
		for i, param := range t.TypeParams {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(param.String())
		}
		b.WriteString(">")
	}
	return b.String()
}

// PrimitiveTag covers the built-in value types (u8, u64, u128, bool,
// address, signer). They never carry coin metadata.
type PrimitiveTag string

func (t PrimitiveTag) isTypeTag() {}

func (t PrimitiveTag) String() string { return string(t) }

// VectorTag is a homogeneous collection of another type.
type VectorTag struct {
	Elem TypeTag
}

func (t VectorTag) isTypeTag() {}

func (t VectorTag) String() string {
	return "vector<" + t.Elem.String() + ">"
}

// ParseTypeTag parses the canonical string form of a type tag as returned
// by the node API, e.g. "0x1::coin::CoinStore<0x42::usd::USD>". Addresses
// are canonicalized, so padded spellings of the same type parse to tags
// with identical string forms.
func ParseTypeTag(raw string) (TypeTag, error) {
	tag, rest, err := parseTypeTag(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("trailing input %q in type tag %q", rest, raw)
	}
	return tag, nil
}

func parseTypeTag(raw string) (TypeTag, string, error) {
	switch {
	case raw == "":
		return nil, "", fmt.Errorf("empty type tag")
	case strings.HasPrefix(raw, "vector<"):
		elem, rest, err := parseTypeTag(raw[len("vector<"):])
		if err != nil {
			return nil, "", err
		}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, ">") {
			return nil, "", fmt.Errorf("unterminated vector in type tag")
		}
		return VectorTag{Elem: elem}, rest[1:], nil
	}

	head, rest := raw, ""
	if idx := strings.IndexAny(raw, "<,>"); idx >= 0 {
		head, rest = raw[:idx], raw[idx:]
	}
	head = strings.TrimSpace(head)

	switch head {
	case "u8", "u16", "u32", "u64", "u128", "u256", "bool", "address", "signer":
		return PrimitiveTag(head), rest, nil
	}

	parts := strings.Split(head, "::")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, "", fmt.Errorf("malformed struct tag %q", head)
	}
	tag := StructTag{Address: NormalizeAddress(parts[0]), Module: parts[1], Name: parts[2]}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "<") {
		return tag, rest, nil
	}
	rest = rest[1:]
	for {
		param, remainder, err := parseTypeTag(strings.TrimSpace(rest))
		if err != nil {
			return nil, "", err
		}
		tag.TypeParams = append(tag.TypeParams, param)
		rest = strings.TrimSpace(remainder)
		if strings.HasPrefix(rest, ",") {
			rest = rest[1:]
			continue
		}
		if strings.HasPrefix(rest, ">") {
			return tag, rest[1:], nil
		}
		return nil, "", fmt.Errorf("unterminated type parameter list")
	}
}

// EncodeResourcePath percent-encodes the angle brackets of a canonical type
// string so it can travel in a URL path segment.
func EncodeResourcePath(typeString string) string {
	replacer := strings.NewReplacer("<", "%3C", ">", "%3E", " ", "")
	return replacer.Replace(typeString)
}
