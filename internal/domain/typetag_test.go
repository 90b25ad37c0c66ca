package domain

import "testing"

func TestParseTypeTag_RoundTrip(t *testing.T) {
	cases := []string{
		"u64",
		"address",
		"0x1::aptos_coin::AptosCoin",
		"0x1::coin::CoinStore<0x1337::test_coin::TestCoin>",
		"0x1::pair::LP<0xa::coin::A, 0xb::coin::B>",
		"0x1::wrap::Outer<0x1::wrap::Inner<0x2::coin::C>>",
		"vector<u8>",
		"vector<0x1::string::String>",
	}
	for _, canonical := range cases {
		tag, err := ParseTypeTag(canonical)
		if err != nil {
			t.Fatalf("ParseTypeTag(%q): %v", canonical, err)
		}
		if tag.String() != canonical {
			t.Errorf("round trip %q -> %q", canonical, tag.String())
		}
	}
}

func TestParseTypeTag_StructShape(t *testing.T) {
	tag, err := ParseTypeTag("0x1::coin::CoinStore<0x1337::test_coin::TestCoin>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	structTag, ok := tag.(StructTag)
	if !ok {
		t.Fatalf("expected StructTag, got %T", tag)
	}
	if structTag.Address != "0x1" || structTag.Module != "coin" || structTag.Name != "CoinStore" {
		t.Errorf("unexpected struct tag: %+v", structTag)
	}
	if len(structTag.TypeParams) != 1 {
		t.Fatalf("expected one type param, got %d", len(structTag.TypeParams))
	}
	inner, ok := structTag.TypeParams[0].(StructTag)
	if !ok || inner.Name != "TestCoin" {
		t.Errorf("unexpected type param: %+v", structTag.TypeParams[0])
	}
}

func TestParseTypeTag_CanonicalizesAddresses(t *testing.T) {
	cases := map[string]string{
		"0x01::aptos_coin::AptosCoin":                        "0x1::aptos_coin::AptosCoin",
		"0x0001::coin::CoinStore<0x01337::t::C>":             "0x1::coin::CoinStore<0x1337::t::C>",
		"0X1::COIN_A::Upper":                                 "0x1::COIN_A::Upper",
		"vector<0x001::string::String>":                      "vector<0x1::string::String>",
		"0x1::wrap::Outer<0x01::wrap::Inner<0x02::coin::C>>": "0x1::wrap::Outer<0x1::wrap::Inner<0x2::coin::C>>",
	}
	for input, want := range cases {
		tag, err := ParseTypeTag(input)
		if err != nil {
			t.Fatalf("ParseTypeTag(%q): %v", input, err)
		}
		if tag.String() != want {
			t.Errorf("ParseTypeTag(%q).String() = %q, want %q", input, tag.String(), want)
		}
	}
}

func TestParseTypeTag_Malformed(t *testing.T) {
	cases := []string{
		"",
		"0x1::coin",
		"0x1::coin::",
		"0x1::coin::CoinStore<",
		"0x1::coin::CoinStore<0x2::a::B",
		"0x1::coin::CoinStore<0x2::a::B>>",
		"vector<u8",
	}
	for _, raw := range cases {
		if _, err := ParseTypeTag(raw); err == nil {
			t.Errorf("ParseTypeTag(%q): expected error", raw)
		}
	}
}

func TestEncodeResourcePath(t *testing.T) {
	encoded := EncodeResourcePath("0x1::coin::CoinInfo<0x1337::test_coin::TestCoin>")
	want := "0x1::coin::CoinInfo%3C0x1337::test_coin::TestCoin%3E"
	if encoded != want {
		t.Errorf("got %q, want %q", encoded, want)
	}
}

func TestNormalizeAddress(t *testing.T) {
	cases := map[string]string{
		"0x1":     "0x1",
		"0x01":    "0x1",
		"0x0001":  "0x1",
		"0X1337":  "0x1337",
		" 0x1 ":   "0x1",
		"0x0":     "0x0",
		"0x00":    "0x0",
		"0xABCDE": "0xabcde",
	}
	for input, want := range cases {
		if got := NormalizeAddress(input); got != want {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCurrencyKeyDistinguishesStructure(t *testing.T) {
	// Without quoting these two would both key as "A|8|0".
	crafted := Currency{Symbol: "A|8", Decimals: 0, Metadata: &CurrencyMetadata{CoinType: ""}}
	plain := Currency{Symbol: "A", Decimals: 8, Metadata: &CurrencyMetadata{CoinType: "0"}}
	if crafted.Key() == plain.Key() {
		t.Errorf("distinct currencies share key %q", crafted.Key())
	}

	noMetadata := Currency{Symbol: "A", Decimals: 8}
	emptyMetadata := Currency{Symbol: "A", Decimals: 8, Metadata: &CurrencyMetadata{}}
	if noMetadata.Key() == emptyMetadata.Key() {
		t.Errorf("nil and empty metadata share key %q", noMetadata.Key())
	}
}

func TestCurrencyEqual(t *testing.T) {
	base := Currency{Symbol: "TC", Decimals: 6, Metadata: &CurrencyMetadata{CoinType: "0x1::a::B"}}
	same := Currency{Symbol: "TC", Decimals: 6, Metadata: &CurrencyMetadata{CoinType: "0x1::a::B"}}
	if !base.Equal(same) {
		t.Error("identical currencies must compare equal")
	}
	for _, other := range []Currency{
		{Symbol: "TX", Decimals: 6, Metadata: &CurrencyMetadata{CoinType: "0x1::a::B"}},
		{Symbol: "TC", Decimals: 8, Metadata: &CurrencyMetadata{CoinType: "0x1::a::B"}},
		{Symbol: "TC", Decimals: 6, Metadata: &CurrencyMetadata{CoinType: "0x2::a::B"}},
		{Symbol: "TC", Decimals: 6},
	} {
		if base.Equal(other) {
			t.Errorf("currency %+v must not equal %+v", other, base)
		}
	}
}
